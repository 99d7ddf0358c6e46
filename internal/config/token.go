package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// GetAPIToken returns the bearer token protecting the HTTP API.
//
// Resolution order: WINGMAN_API_TOKEN environment variable, then the
// platform secret store. When neither holds a token, a fresh random one
// is generated and persisted so the server and CLI agree across runs.
func GetAPIToken() (string, error) {
	if tok := os.Getenv("WINGMAN_API_TOKEN"); tok != "" {
		return tok, nil
	}

	if out, err := keychainExec("wingman", "api_token"); err == nil {
		if tok := strings.TrimSpace(string(out)); tok != "" {
			return tok, nil
		}
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating api token: %w", err)
	}
	tok := hex.EncodeToString(buf)

	if err := keychainStore("wingman", "api_token", tok); err != nil {
		return "", fmt.Errorf("storing api token: %w", err)
	}
	return tok, nil
}
