// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/bureau-foundation/tokenstudio/lib/locate"
	"github.com/bureau-foundation/tokenstudio/lib/sidecar"
)

// Sidecar is the part of sidecar.Manager the surface uses.
type Sidecar interface {
	Start(ctx context.Context) error
	Call(ctx context.Context, method string, params any) (json.RawMessage, error)
	Health() sidecar.Health
}

// Health error codes.
const (
	CodeNodeNotFound    = "NODE_NOT_FOUND"
	CodeSidecarNotFound = "SIDECAR_NOT_FOUND"
	CodeStartFailed     = "SIDECAR_START_FAILED"
)

// Surface implements the GUI operations on top of a Sidecar.
type Surface struct {
	sidecar Sidecar
	logger  *slog.Logger
	exit    func(code int)
}

// NewSurface creates a Surface. exit terminates the application and
// defaults to os.Exit; logger defaults to a text handler on stderr.
func NewSurface(sidecar Sidecar, logger *slog.Logger, exit func(code int)) *Surface {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	if exit == nil {
		exit = os.Exit
	}
	return &Surface{sidecar: sidecar, logger: logger, exit: exit}
}

// forward starts the sidecar if needed and sends one call. A start
// failure is only logged: the call then reports "sidecar not started"
// with the failure as its reason.
func (s *Surface) forward(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if err := s.sidecar.Start(ctx); err != nil {
		s.logger.Debug("sidecar start before call failed", "method", method, "error", err)
	}
	return s.sidecar.Call(ctx, method, params)
}

// AcquireAppToken acquires a token for an application identity.
func (s *Surface) AcquireAppToken(ctx context.Context, config TokenAppConfig, scopes []string) (json.RawMessage, error) {
	return s.forward(ctx, "acquire_app_token", appTokenParams{Config: config, Scopes: scopes})
}

// AcquireUserToken acquires a user token, interactively unless
// SilentOnly is set.
func (s *Surface) AcquireUserToken(ctx context.Context, request UserTokenRequest) (json.RawMessage, error) {
	return s.forward(ctx, "acquire_user_token", request)
}

// GetUserAccounts lists the cached accounts for a client.
func (s *Surface) GetUserAccounts(ctx context.Context, scope ClientScope) (json.RawMessage, error) {
	return s.forward(ctx, "get_user_accounts", scope)
}

// ClearUserCache removes the cached accounts for a client (logout).
func (s *Surface) ClearUserCache(ctx context.Context, scope ClientScope) error {
	_, err := s.forward(ctx, "clear_user_cache", scope)
	return err
}

// GetAuthStorageStatus reports whether the encrypted token cache is
// available.
func (s *Surface) GetAuthStorageStatus(ctx context.Context) (json.RawMessage, error) {
	return s.forward(ctx, "get_auth_storage_status", emptyParams{})
}

// ValidateKeyVault checks connectivity to a credential store.
func (s *Surface) ValidateKeyVault(ctx context.Context, config KeyVaultConfig) (json.RawMessage, error) {
	return s.forward(ctx, "validate_keyvault", config)
}

// GetCredentialStatus reports whether platform credentials are usable.
func (s *Surface) GetCredentialStatus(ctx context.Context) (json.RawMessage, error) {
	return s.forward(ctx, "get_credential_status", emptyParams{})
}

func (s *Surface) ListAzureSubscriptions(ctx context.Context) (json.RawMessage, error) {
	return s.forward(ctx, "list_azure_subscriptions", emptyParams{})
}

func (s *Surface) ListAzureApps(ctx context.Context, search *string) (json.RawMessage, error) {
	return s.forward(ctx, "list_azure_apps", searchParams{Search: search})
}

func (s *Surface) ListKeyVaults(ctx context.Context, subscriptionID *string) (json.RawMessage, error) {
	return s.forward(ctx, "list_keyvaults", subscriptionParams{SubscriptionID: subscriptionID})
}

func (s *Surface) ListKeyVaultSecrets(ctx context.Context, vaultName string, subscriptionID *string) (json.RawMessage, error) {
	return s.forward(ctx, "list_keyvault_secrets", vaultParams{VaultName: vaultName, SubscriptionID: subscriptionID})
}

func (s *Surface) ListKeyVaultCertificates(ctx context.Context, vaultName string, subscriptionID *string) (json.RawMessage, error) {
	return s.forward(ctx, "list_keyvault_certificates", vaultParams{VaultName: vaultName, SubscriptionID: subscriptionID})
}

// HealthReport is the GUI view of the supervisor.
type HealthReport struct {
	Running   bool              `json:"running"`
	LastError *string           `json:"lastError"`
	ErrorCode *string           `json:"errorCode"`
	PID       *int              `json:"pid"`
	StartedAt *time.Time        `json:"startedAt"`
	LastExit  *sidecar.ExitInfo `json:"lastExit"`
}

// SidecarHealth reports supervisor state without starting the sidecar.
func (s *Surface) SidecarHealth() HealthReport {
	health := s.sidecar.Health()

	report := HealthReport{Running: health.Running, LastExit: health.LastExit}
	if health.Running {
		pid := health.PID
		startedAt := health.StartedAt
		report.PID = &pid
		report.StartedAt = &startedAt
	}
	if health.LastError != nil {
		message := health.LastError.Error()
		code := ClassifyStartError(health.LastError)
		report.LastError = &message
		report.ErrorCode = &code
	}
	return report
}

// ClassifyStartError maps a start failure to a health error code. The
// StartError kind decides when present; otherwise the message is
// matched against the locator markers.
func ClassifyStartError(err error) string {
	var startErr *sidecar.StartError
	if errors.As(err, &startErr) {
		switch startErr.Kind {
		case sidecar.KindRuntimeNotFound:
			return CodeNodeNotFound
		case sidecar.KindScriptNotFound:
			return CodeSidecarNotFound
		default:
			return CodeStartFailed
		}
	}

	message := err.Error()
	switch {
	case strings.Contains(message, locate.RuntimeNotFoundMarker):
		return CodeNodeNotFound
	case strings.Contains(message, locate.ScriptNotFoundMarker),
		strings.Contains(strings.ToLower(message), "could not find sidecar"):
		return CodeSidecarNotFound
	default:
		return CodeStartFailed
	}
}

// Exit terminates the application with status 0.
func (s *Surface) Exit() {
	s.logger.Info("exit requested")
	s.exit(0)
}
