package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "WINGMAN_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "genai.base_url", typ: kString, env: "WINGMAN_GENAI_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.GenAI.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.GenAI.BaseURL },
	},
	{
		key: "genai.model", typ: kString, env: "WINGMAN_GENAI_MODEL",
		apply:   func(cfg *Config, v any) { cfg.GenAI.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.GenAI.Model },
	},
	{
		key: "genai.transport", typ: kString, env: "WINGMAN_GENAI_TRANSPORT",
		apply:   func(cfg *Config, v any) { cfg.GenAI.Transport = v.(string) },
		extract: func(cfg Config) any { return cfg.GenAI.Transport },
	},
	{
		key: "genai.timeout", typ: kInt, env: "WINGMAN_GENAI_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.GenAI.Timeout = v.(int) },
		extract: func(cfg Config) any { return cfg.GenAI.Timeout },
	},
	{
		key: "genai.stream_timeout", typ: kInt, env: "WINGMAN_GENAI_STREAM_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.GenAI.StreamTimeout = v.(int) },
		extract: func(cfg Config) any { return cfg.GenAI.StreamTimeout },
	},
	{
		key: "genai.api_key", typ: kString, env: "WINGMAN_GEMINI_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.GenAI.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.GenAI.APIKey },
	},
	{
		key: "storage.data_dir", typ: kString, env: "WINGMAN_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "log.level", typ: kString, env: "WINGMAN_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
