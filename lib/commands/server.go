// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
)

// handler runs one command with its raw arguments.
type handler func(ctx context.Context, params json.RawMessage) (any, error)

// paramsError marks an argument decoding failure.
type paramsError struct {
	err error
}

func (e *paramsError) Error() string { return "invalid params: " + e.err.Error() }
func (e *paramsError) Unwrap() error { return e.err }

// Server bridges a GUI process to a Surface over newline-delimited
// JSON-RPC 2.0. Requests are dispatched concurrently, so a health query
// is answered while a token call is still in progress; replies are
// written whole, one per line, in completion order.
type Server struct {
	surface  *Surface
	logger   *slog.Logger
	handlers map[string]handler
}

// NewServer creates a bridge for surface.
func NewServer(surface *Surface, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	server := &Server{surface: surface, logger: logger}
	server.handlers = map[string]handler{
		"acquire_app_token": func(ctx context.Context, params json.RawMessage) (any, error) {
			var arguments appTokenParams
			if err := decodeParams(params, &arguments); err != nil {
				return nil, err
			}
			if err := requireFields(map[string]string{
				"config.clientId": arguments.Config.ClientID,
				"config.tenantId": arguments.Config.TenantID,
			}); err != nil {
				return nil, err
			}
			return surface.AcquireAppToken(ctx, arguments.Config, arguments.Scopes)
		},
		"acquire_user_token": func(ctx context.Context, params json.RawMessage) (any, error) {
			var arguments UserTokenRequest
			if err := decodeParams(params, &arguments); err != nil {
				return nil, err
			}
			if err := requireFields(map[string]string{"clientId": arguments.ClientID, "tenantId": arguments.TenantID}); err != nil {
				return nil, err
			}
			return surface.AcquireUserToken(ctx, arguments)
		},
		"get_user_accounts": func(ctx context.Context, params json.RawMessage) (any, error) {
			scope, err := decodeClientScope(params)
			if err != nil {
				return nil, err
			}
			return surface.GetUserAccounts(ctx, scope)
		},
		"clear_user_cache": func(ctx context.Context, params json.RawMessage) (any, error) {
			scope, err := decodeClientScope(params)
			if err != nil {
				return nil, err
			}
			return nil, surface.ClearUserCache(ctx, scope)
		},
		"get_auth_storage_status": func(ctx context.Context, _ json.RawMessage) (any, error) {
			return surface.GetAuthStorageStatus(ctx)
		},
		"validate_keyvault": func(ctx context.Context, params json.RawMessage) (any, error) {
			var arguments struct {
				Config KeyVaultConfig `json:"config"`
			}
			if err := decodeParams(params, &arguments); err != nil {
				return nil, err
			}
			if err := requireFields(map[string]string{"config.uri": arguments.Config.URI}); err != nil {
				return nil, err
			}
			return surface.ValidateKeyVault(ctx, arguments.Config)
		},
		"get_credential_status": func(ctx context.Context, _ json.RawMessage) (any, error) {
			return surface.GetCredentialStatus(ctx)
		},
		"list_azure_subscriptions": func(ctx context.Context, _ json.RawMessage) (any, error) {
			return surface.ListAzureSubscriptions(ctx)
		},
		"list_azure_apps": func(ctx context.Context, params json.RawMessage) (any, error) {
			var arguments searchParams
			if err := decodeParams(params, &arguments); err != nil {
				return nil, err
			}
			return surface.ListAzureApps(ctx, arguments.Search)
		},
		"list_keyvaults": func(ctx context.Context, params json.RawMessage) (any, error) {
			var arguments subscriptionParams
			if err := decodeParams(params, &arguments); err != nil {
				return nil, err
			}
			return surface.ListKeyVaults(ctx, arguments.SubscriptionID)
		},
		"list_keyvault_secrets": func(ctx context.Context, params json.RawMessage) (any, error) {
			arguments, err := decodeVaultParams(params)
			if err != nil {
				return nil, err
			}
			return surface.ListKeyVaultSecrets(ctx, arguments.VaultName, arguments.SubscriptionID)
		},
		"list_keyvault_certificates": func(ctx context.Context, params json.RawMessage) (any, error) {
			arguments, err := decodeVaultParams(params)
			if err != nil {
				return nil, err
			}
			return surface.ListKeyVaultCertificates(ctx, arguments.VaultName, arguments.SubscriptionID)
		},
		"get_sidecar_health": func(context.Context, json.RawMessage) (any, error) {
			return surface.SidecarHealth(), nil
		},
	}
	return server
}

// Serve runs the bridge on the process's stdin and stdout.
func (s *Server) Serve(ctx context.Context) error {
	return s.Run(ctx, os.Stdin, os.Stdout)
}

// Run processes requests from input until EOF, then waits for commands
// still in flight. "exit_app" is answered and then terminates the
// application through the surface without waiting for other commands.
func (s *Server) Run(ctx context.Context, input io.Reader, output io.Writer) error {
	scanner := bufio.NewScanner(input)
	// Token responses and account lists can be large.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	replies := &replyWriter{encoder: json.NewEncoder(output)}
	var inFlight sync.WaitGroup
	defer inFlight.Wait()

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var req request
		if err := json.Unmarshal(line, &req); err != nil {
			if writeErr := replies.error(json.RawMessage("null"), codeParseError, "parse error: "+err.Error()); writeErr != nil {
				return fmt.Errorf("writing parse error response: %w", writeErr)
			}
			continue
		}

		if req.JSONRPC != "2.0" {
			if !req.isNotification() {
				if writeErr := replies.error(req.ID, codeInvalidRequest, "unsupported JSON-RPC version"); writeErr != nil {
					return fmt.Errorf("writing version error response: %w", writeErr)
				}
			}
			continue
		}
		if req.isNotification() {
			continue
		}

		if req.Method == "exit_app" {
			if err := replies.result(req.ID, nil); err != nil {
				return fmt.Errorf("writing exit response: %w", err)
			}
			s.surface.Exit()
			return nil
		}

		handle, ok := s.handlers[req.Method]
		if !ok {
			if writeErr := replies.error(req.ID, codeMethodNotFound, "unknown command: "+req.Method); writeErr != nil {
				return fmt.Errorf("writing method error response: %w", writeErr)
			}
			continue
		}

		inFlight.Add(1)
		go func(req request) {
			defer inFlight.Done()
			s.dispatch(ctx, replies, &req, handle)
		}(req)
	}

	return scanner.Err()
}

func (s *Server) dispatch(ctx context.Context, replies *replyWriter, req *request, handle handler) {
	result, err := handle(ctx, req.Params)

	var writeErr error
	var invalid *paramsError
	switch {
	case errors.As(err, &invalid):
		writeErr = replies.error(req.ID, codeInvalidParams, err.Error())
	case err != nil:
		s.logger.Debug("command failed", "command", req.Method, "error", err)
		writeErr = replies.error(req.ID, codeCommandFailed, err.Error())
	default:
		writeErr = replies.result(req.ID, result)
	}
	if writeErr != nil {
		s.logger.Error("writing command response", "command", req.Method, "error", writeErr)
	}
}

// replyWriter serializes whole replies onto the output stream.
type replyWriter struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

func (w *replyWriter) result(id json.RawMessage, result any) error {
	encoded := json.RawMessage("null")
	switch value := result.(type) {
	case nil:
	case json.RawMessage:
		if len(value) > 0 {
			encoded = value
		}
	default:
		marshaled, err := json.Marshal(value)
		if err != nil {
			return w.error(id, codeCommandFailed, "encoding result: "+err.Error())
		}
		encoded = marshaled
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.encoder.Encode(response{JSONRPC: "2.0", ID: id, Result: encoded})
}

func (w *replyWriter) error(id json.RawMessage, code int, message string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.encoder.Encode(response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &rpcError{Code: code, Message: message},
	})
}

// decodeParams decodes GUI arguments. Absent params decode as {}.
func decodeParams(params json.RawMessage, target any) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, target); err != nil {
		return &paramsError{err: err}
	}
	return nil
}

// requireFields reports every empty required argument, sorted by
// name.
func requireFields(fields map[string]string) error {
	var missing []string
	for name, value := range fields {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return &paramsError{err: fmt.Errorf("missing required argument %s", strings.Join(missing, ", "))}
}

func decodeClientScope(params json.RawMessage) (ClientScope, error) {
	var scope ClientScope
	if err := decodeParams(params, &scope); err != nil {
		return scope, err
	}
	return scope, requireFields(map[string]string{"clientId": scope.ClientID, "tenantId": scope.TenantID})
}

func decodeVaultParams(params json.RawMessage) (vaultParams, error) {
	var arguments vaultParams
	if err := decodeParams(params, &arguments); err != nil {
		return arguments, err
	}
	return arguments, requireFields(map[string]string{"vaultName": arguments.VaultName})
}
