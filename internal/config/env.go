package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Environment variable names honored as overrides. The SOLANA_NODE_* pair matches
// what the original collector deployments already export.
const (
	EnvRpcEndpoint       = "AURABOT_RPC_ENDPOINT"
	EnvWssEndpoint       = "AURABOT_WSS_ENDPOINT"
	EnvLegacyRpcEndpoint = "SOLANA_NODE_RPC_ENDPOINT"
	EnvLegacyWssEndpoint = "SOLANA_NODE_WSS_ENDPOINT"
)

// applyEnv layers process environment (and a best-effort .env file) over YAML values.
func (c *Config) applyEnv() {
	_ = godotenv.Load()

	if v := firstEnv(EnvRpcEndpoint, EnvLegacyRpcEndpoint); v != "" {
		c.Chain.RpcURL = v
	}
	if v := firstEnv(EnvWssEndpoint, EnvLegacyWssEndpoint); v != "" {
		c.Chain.WssURL = v
	}
}

// SocialBearerToken resolves the social API credential from the configured env var.
func (c *Config) SocialBearerToken() string {
	if c.Social.BearerTokenEnv == "" {
		return ""
	}
	return os.Getenv(c.Social.BearerTokenEnv)
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}
