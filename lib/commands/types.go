// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

// KeyVaultConfig locates the credential an application identity
// authenticates with.
type KeyVaultConfig struct {
	URI            string  `json:"uri"`
	CredentialType string  `json:"credentialType"`
	CertName       *string `json:"certName"`
	SecretName     *string `json:"secretName"`
}

// TokenAppConfig identifies an application registration and its
// credential.
type TokenAppConfig struct {
	ClientID string         `json:"clientId"`
	TenantID string         `json:"tenantId"`
	KeyVault KeyVaultConfig `json:"keyVault"`
}

// UserTokenRequest is the parameter set for an interactive or silent
// user token.
type UserTokenRequest struct {
	ClientID             string   `json:"clientId"`
	TenantID             string   `json:"tenantId"`
	Scopes               []string `json:"scopes"`
	Prompt               *string  `json:"prompt"`
	AccountHomeAccountID *string  `json:"accountHomeAccountId"`
	SilentOnly           *bool    `json:"silentOnly"`
}

// ClientScope addresses the token cache of one client in one tenant.
type ClientScope struct {
	ClientID string `json:"clientId"`
	TenantID string `json:"tenantId"`
}

type appTokenParams struct {
	Config TokenAppConfig `json:"config"`
	Scopes []string       `json:"scopes"`
}

type searchParams struct {
	Search *string `json:"search"`
}

type subscriptionParams struct {
	SubscriptionID *string `json:"subscriptionId"`
}

type vaultParams struct {
	VaultName      string  `json:"vaultName"`
	SubscriptionID *string `json:"subscriptionId"`
}

// emptyParams marshals as {}.
type emptyParams struct{}
