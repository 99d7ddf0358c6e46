package config

import (
	"fmt"
	"strings"
)

type Config struct {
	Server  ServerConfig
	GenAI   GenAIConfig
	Storage StorageConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port int
}

type GenAIConfig struct {
	BaseURL       string
	Model         string
	APIKey        string
	Transport     string // "sync" or "stream"
	Timeout       int    // seconds
	StreamTimeout int    // seconds
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4000,
		},
		GenAI: GenAIConfig{
			BaseURL:       "https://generativelanguage.googleapis.com/v1beta",
			Model:         "gemini-flash-latest",
			Transport:     "sync",
			Timeout:       60,
			StreamTimeout: 300,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform-native backend, environment
// variables, and platform secret store.
//
// On macOS the backend is UserDefaults (domain: com.wingman.app) and
// secrets fall back to macOS Keychain.
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/wingman/config.json
// and secrets live in a secrets file under $XDG_DATA_HOME/wingman.
//
// Environment variables (WINGMAN_*) override backend values on all
// platforms.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), keychainReader{})
}

// keychain abstracts secret-store access for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

func loadWith(b ConfigBackend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if cfg.GenAI.APIKey == "" {
		if key, err := kc.Get("wingman", "gemini_api_key"); err == nil && key != "" {
			cfg.GenAI.APIKey = key
		}
	}

	if cfg.GenAI.APIKey == "" {
		msg := "missing required config: Gemini API key. " +
			"Set it via environment variable WINGMAN_GEMINI_API_KEY" +
			apiKeyHint()
		return Config{}, fmt.Errorf("%s", msg)
	}

	switch cfg.GenAI.Transport {
	case "sync", "stream":
	default:
		return Config{}, fmt.Errorf("invalid genai.transport %q: must be \"sync\" or \"stream\"", cfg.GenAI.Transport)
	}

	return cfg, nil
}

// keychainReader reads from the platform secret store.
type keychainReader struct{}

func (keychainReader) Get(service, account string) (string, error) {
	out, err := keychainExec(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
