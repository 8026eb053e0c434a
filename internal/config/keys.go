package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kDuration
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	// account names a secret's entry in the platform secret store.
	account string
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "CHARTDECK_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "storage.data_dir", typ: kString, env: "CHARTDECK_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "log.level", typ: kString, env: "CHARTDECK_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "api.token", typ: kString, env: "CHARTDECK_API_TOKEN",
		secret: true, account: "api_token",
		apply:   func(cfg *Config, v any) { cfg.API.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.API.Token },
	},
	{
		key: "export.page_size", typ: kString, env: "CHARTDECK_EXPORT_PAGE_SIZE",
		apply:   func(cfg *Config, v any) { cfg.Export.PageSize = v.(string) },
		extract: func(cfg Config) any { return cfg.Export.PageSize },
	},
	{
		key: "export.orientation", typ: kString, env: "CHARTDECK_EXPORT_ORIENTATION",
		apply:   func(cfg *Config, v any) { cfg.Export.Orientation = v.(string) },
		extract: func(cfg Config) any { return cfg.Export.Orientation },
	},
	{
		key: "export.slide_settle_delay", typ: kDuration, env: "CHARTDECK_EXPORT_SLIDE_SETTLE_DELAY",
		apply:   func(cfg *Config, v any) { cfg.Export.SlideSettleDelay = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Export.SlideSettleDelay },
	},
	{
		key: "export.table_slot", typ: kString, env: "CHARTDECK_EXPORT_TABLE_SLOT",
		apply:   func(cfg *Config, v any) { cfg.Export.TableSlot = v.(string) },
		extract: func(cfg Config) any { return cfg.Export.TableSlot },
	},
	{
		key: "export.link_column", typ: kString, env: "CHARTDECK_EXPORT_LINK_COLUMN",
		apply:   func(cfg *Config, v any) { cfg.Export.LinkColumn = v.(string) },
		extract: func(cfg Config) any { return cfg.Export.LinkColumn },
	},
	{
		key: "render.width", typ: kInt, env: "CHARTDECK_RENDER_WIDTH",
		apply:   func(cfg *Config, v any) { cfg.Render.Width = v.(int) },
		extract: func(cfg Config) any { return cfg.Render.Width },
	},
	{
		key: "render.height", typ: kInt, env: "CHARTDECK_RENDER_HEIGHT",
		apply:   func(cfg *Config, v any) { cfg.Render.Height = v.(int) },
		extract: func(cfg Config) any { return cfg.Render.Height },
	},
	{
		key: "session.ttl", typ: kDuration, env: "CHARTDECK_SESSION_TTL",
		apply:   func(cfg *Config, v any) { cfg.Session.TTL = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Session.TTL },
	},
	{
		key: "upload.max_bytes", typ: kInt, env: "CHARTDECK_UPLOAD_MAX_BYTES",
		apply:   func(cfg *Config, v any) { cfg.Upload.MaxBytes = v.(int) },
		extract: func(cfg Config) any { return cfg.Upload.MaxBytes },
	},
}

func lookupSpec(key string) (keySpec, bool) {
	for _, s := range specs {
		if s.key == key {
			return s, true
		}
	}
	return keySpec{}, false
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
		case kDuration:
			v, ok, err := b.GetDuration(s.key)
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

// applySecrets fills secrets still unset after env overrides from the
// platform secret store.
func applySecrets(cfg *Config, kc keychain) {
	for _, s := range specs {
		if !s.secret || s.extract(*cfg) != "" {
			continue
		}
		if v, err := kc.Get(keychainService, s.account); err == nil && v != "" {
			s.apply(cfg, v)
		}
	}
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
		case kDuration:
			if d, err := time.ParseDuration(raw); err == nil {
				s.apply(cfg, d)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse duration from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
