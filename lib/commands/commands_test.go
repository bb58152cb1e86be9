// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/tokenstudio/lib/locate"
	"github.com/bureau-foundation/tokenstudio/lib/sidecar"
	"github.com/bureau-foundation/tokenstudio/lib/testutil"
)

type recordedCall struct {
	method string
	params json.RawMessage
}

// fakeSidecar records calls and answers from canned results.
type fakeSidecar struct {
	mu       sync.Mutex
	starts   int
	startErr error
	calls    []recordedCall
	results  map[string]json.RawMessage
	errs     map[string]error
	health   sidecar.Health

	// gates, when set for a method, blocks its call until closed.
	gates map[string]chan struct{}
}

func (f *fakeSidecar) Start(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	return f.startErr
}

func (f *fakeSidecar) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	encoded, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{method: method, params: encoded})
	gate := f.gates[method]
	result, callErr := f.results[method], f.errs[method]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if callErr != nil {
		return nil, callErr
	}
	if result == nil {
		return json.RawMessage("null"), nil
	}
	return result, nil
}

func (f *fakeSidecar) Health() sidecar.Health {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.health
}

func (f *fakeSidecar) lastCall(t *testing.T) recordedCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		t.Fatal("no call recorded")
	}
	return f.calls[len(f.calls)-1]
}

func assertJSONEqual(t *testing.T, got json.RawMessage, want string) {
	t.Helper()
	var gotValue, wantValue any
	if err := json.Unmarshal(got, &gotValue); err != nil {
		t.Fatalf("decoding %s: %v", got, err)
	}
	if err := json.Unmarshal([]byte(want), &wantValue); err != nil {
		t.Fatalf("decoding expectation %s: %v", want, err)
	}
	if !reflect.DeepEqual(gotValue, wantValue) {
		t.Errorf("JSON = %s, want %s", got, want)
	}
}

func stringPointer(value string) *string { return &value }

func TestSurface_ForwardsMethodsAndParams(t *testing.T) {
	silent := true
	tests := []struct {
		name   string
		invoke func(*Surface) error
		method string
		params string
	}{
		{
			name: "acquire app token",
			invoke: func(s *Surface) error {
				_, err := s.AcquireAppToken(context.Background(), TokenAppConfig{
					ClientID: "app", TenantID: "tenant",
					KeyVault: KeyVaultConfig{URI: "https://vault", CredentialType: "certificate", CertName: stringPointer("cert")},
				}, []string{"https://graph.microsoft.com/.default"})
				return err
			},
			method: "acquire_app_token",
			params: `{"config":{"clientId":"app","tenantId":"tenant","keyVault":{"uri":"https://vault","credentialType":"certificate","certName":"cert","secretName":null}},"scopes":["https://graph.microsoft.com/.default"]}`,
		},
		{
			name: "acquire user token with optionals absent",
			invoke: func(s *Surface) error {
				_, err := s.AcquireUserToken(context.Background(), UserTokenRequest{ClientID: "c", TenantID: "t", Scopes: []string{"User.Read"}})
				return err
			},
			method: "acquire_user_token",
			params: `{"clientId":"c","tenantId":"t","scopes":["User.Read"],"prompt":null,"accountHomeAccountId":null,"silentOnly":null}`,
		},
		{
			name: "acquire user token silently",
			invoke: func(s *Surface) error {
				_, err := s.AcquireUserToken(context.Background(), UserTokenRequest{
					ClientID: "c", TenantID: "t", Scopes: []string{"User.Read"},
					Prompt: stringPointer("select_account"), AccountHomeAccountID: stringPointer("home.id"), SilentOnly: &silent,
				})
				return err
			},
			method: "acquire_user_token",
			params: `{"clientId":"c","tenantId":"t","scopes":["User.Read"],"prompt":"select_account","accountHomeAccountId":"home.id","silentOnly":true}`,
		},
		{
			name: "get user accounts",
			invoke: func(s *Surface) error {
				_, err := s.GetUserAccounts(context.Background(), ClientScope{ClientID: "c", TenantID: "t"})
				return err
			},
			method: "get_user_accounts",
			params: `{"clientId":"c","tenantId":"t"}`,
		},
		{
			name: "clear user cache",
			invoke: func(s *Surface) error {
				return s.ClearUserCache(context.Background(), ClientScope{ClientID: "c", TenantID: "t"})
			},
			method: "clear_user_cache",
			params: `{"clientId":"c","tenantId":"t"}`,
		},
		{
			name:   "auth storage status",
			invoke: func(s *Surface) error { _, err := s.GetAuthStorageStatus(context.Background()); return err },
			method: "get_auth_storage_status",
			params: `{}`,
		},
		{
			name: "validate key vault",
			invoke: func(s *Surface) error {
				_, err := s.ValidateKeyVault(context.Background(), KeyVaultConfig{URI: "https://vault", CredentialType: "secret", SecretName: stringPointer("s")})
				return err
			},
			method: "validate_keyvault",
			params: `{"uri":"https://vault","credentialType":"secret","certName":null,"secretName":"s"}`,
		},
		{
			name:   "credential status",
			invoke: func(s *Surface) error { _, err := s.GetCredentialStatus(context.Background()); return err },
			method: "get_credential_status",
			params: `{}`,
		},
		{
			name:   "subscriptions",
			invoke: func(s *Surface) error { _, err := s.ListAzureSubscriptions(context.Background()); return err },
			method: "list_azure_subscriptions",
			params: `{}`,
		},
		{
			name:   "apps without search",
			invoke: func(s *Surface) error { _, err := s.ListAzureApps(context.Background(), nil); return err },
			method: "list_azure_apps",
			params: `{"search":null}`,
		},
		{
			name:   "key vaults",
			invoke: func(s *Surface) error { _, err := s.ListKeyVaults(context.Background(), stringPointer("sub")); return err },
			method: "list_keyvaults",
			params: `{"subscriptionId":"sub"}`,
		},
		{
			name: "key vault secrets",
			invoke: func(s *Surface) error {
				_, err := s.ListKeyVaultSecrets(context.Background(), "vault", nil)
				return err
			},
			method: "list_keyvault_secrets",
			params: `{"vaultName":"vault","subscriptionId":null}`,
		},
		{
			name: "key vault certificates",
			invoke: func(s *Surface) error {
				_, err := s.ListKeyVaultCertificates(context.Background(), "vault", stringPointer("sub"))
				return err
			},
			method: "list_keyvault_certificates",
			params: `{"vaultName":"vault","subscriptionId":"sub"}`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fake := &fakeSidecar{}
			surface := NewSurface(fake, testutil.Logger(t), nil)

			if err := test.invoke(surface); err != nil {
				t.Fatalf("invoke error: %v", err)
			}
			call := fake.lastCall(t)
			if call.method != test.method {
				t.Errorf("method = %q, want %q", call.method, test.method)
			}
			assertJSONEqual(t, call.params, test.params)
			if fake.starts != 1 {
				t.Errorf("Start called %d times, want 1", fake.starts)
			}
		})
	}
}

func TestSurface_ResultPassesThrough(t *testing.T) {
	fake := &fakeSidecar{results: map[string]json.RawMessage{
		"get_credential_status": json.RawMessage(`{"available":true,"message":"Azure CLI signed in"}`),
	}}
	surface := NewSurface(fake, testutil.Logger(t), nil)

	result, err := surface.GetCredentialStatus(context.Background())
	if err != nil {
		t.Fatalf("GetCredentialStatus() error: %v", err)
	}
	if string(result) != `{"available":true,"message":"Azure CLI signed in"}` {
		t.Errorf("result = %s", result)
	}
}

func TestSurface_StartFailureSurfacesThroughCall(t *testing.T) {
	startErr := &sidecar.StartError{Kind: sidecar.KindRuntimeNotFound, Err: &locate.RuntimeNotFoundError{}}
	fake := &fakeSidecar{
		startErr: startErr,
		errs:     map[string]error{"get_user_accounts": &sidecar.NotStartedError{Reason: startErr}},
	}
	surface := NewSurface(fake, testutil.Logger(t), nil)

	_, err := surface.GetUserAccounts(context.Background(), ClientScope{ClientID: "c", TenantID: "t"})
	if err == nil || !strings.HasPrefix(err.Error(), "sidecar not started: "+locate.RuntimeNotFoundMarker) {
		t.Errorf("error = %v, want not started with the runtime failure", err)
	}
}

func TestSurface_SidecarHealth(t *testing.T) {
	startedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		health    sidecar.Health
		running   bool
		errorCode string
	}{
		{
			name:    "running",
			health:  sidecar.Health{State: sidecar.StateRunning, Running: true, PID: 4242, StartedAt: startedAt},
			running: true,
		},
		{
			name:      "runtime missing",
			health:    sidecar.Health{State: sidecar.StateFailed, LastError: &sidecar.StartError{Kind: sidecar.KindRuntimeNotFound, Err: &locate.RuntimeNotFoundError{}}},
			errorCode: CodeNodeNotFound,
		},
		{
			name:      "script missing",
			health:    sidecar.Health{State: sidecar.StateFailed, LastError: &sidecar.StartError{Kind: sidecar.KindScriptNotFound, Err: &locate.ScriptNotFoundError{Relative: "sidecar/dist/index.js"}}},
			errorCode: CodeSidecarNotFound,
		},
		{
			name:      "spawn failed",
			health:    sidecar.Health{State: sidecar.StateFailed, LastError: &sidecar.StartError{Kind: sidecar.KindSpawnFailed, Err: errors.New("permission denied")}},
			errorCode: CodeStartFailed,
		},
		{
			name:      "untyped runtime message",
			health:    sidecar.Health{State: sidecar.StateFailed, LastError: errors.New("Node.js not found. Please install Node.js")},
			errorCode: CodeNodeNotFound,
		},
		{
			name:      "untyped script message",
			health:    sidecar.Health{State: sidecar.StateFailed, LastError: errors.New("Could not find sidecar dist directory. Checked paths: /a")},
			errorCode: CodeSidecarNotFound,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			surface := NewSurface(&fakeSidecar{health: test.health}, testutil.Logger(t), nil)
			report := surface.SidecarHealth()

			if report.Running != test.running {
				t.Errorf("Running = %v, want %v", report.Running, test.running)
			}
			if test.running {
				if report.PID == nil || *report.PID != 4242 || report.StartedAt == nil || !report.StartedAt.Equal(startedAt) {
					t.Errorf("report = %+v, want pid and start time", report)
				}
			}
			if test.errorCode == "" {
				if report.ErrorCode != nil || report.LastError != nil {
					t.Errorf("unexpected error in report: %+v", report)
				}
				return
			}
			if report.ErrorCode == nil || *report.ErrorCode != test.errorCode {
				t.Errorf("ErrorCode = %v, want %s", report.ErrorCode, test.errorCode)
			}
			if report.LastError == nil || *report.LastError != test.health.LastError.Error() {
				t.Errorf("LastError = %v, want %q", report.LastError, test.health.LastError)
			}
		})
	}
}

func TestSurface_Exit(t *testing.T) {
	code := -1
	surface := NewSurface(&fakeSidecar{}, testutil.Logger(t), func(status int) { code = status })

	surface.Exit()
	if code != 0 {
		t.Errorf("exit status = %d, want 0", code)
	}
}
