package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kalambet/chartdeck/internal/dataset"
	"github.com/kalambet/chartdeck/internal/export"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Log     LogConfig
	API     APIConfig
	Export  ExportConfig
	Render  RenderConfig
	Session SessionConfig
	Upload  UploadConfig
}

type ServerConfig struct {
	Port int
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

type APIConfig struct {
	// Token is the bearer token required by the HTTP API. Empty disables auth.
	Token string
}

type ExportConfig struct {
	PageSize         string
	Orientation      string
	SlideSettleDelay time.Duration
	TableSlot        string
	LinkColumn       string
}

type RenderConfig struct {
	Width  int
	Height int
}

type SessionConfig struct {
	TTL time.Duration
}

type UploadConfig struct {
	MaxBytes int
}

func defaults() Config {
	return Config{
		Server:  ServerConfig{Port: 4100},
		Storage: StorageConfig{DataDir: defaultDataDir()},
		Log:     LogConfig{Level: "info"},
		Export: ExportConfig{
			PageSize:         string(export.A4),
			Orientation:      string(export.Portrait),
			SlideSettleDelay: 150 * time.Millisecond,
			TableSlot:        string(dataset.OfficialInstagram),
			LinkColumn:       "Media URL",
		},
		Render:  RenderConfig{Width: 800, Height: 400},
		Session: SessionConfig{TTL: 2 * time.Hour},
		Upload:  UploadConfig{MaxBytes: 32 << 20},
	}
}

// Load reads configuration from the platform-native backend, environment
// variables, and platform secret store.
//
// On macOS the backend is UserDefaults (domain: com.chartdeck.app) and the
// API token falls back to the macOS Keychain.
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/chartdeck/config.json
// and the token falls back to $XDG_DATA_HOME/chartdeck/secrets.json.
//
// Environment variables (CHARTDECK_*) override backend values on all platforms.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), keychainReader{})
}

// keychain abstracts secret storage for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

const keychainService = appName

func loadWith(b ConfigBackend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)
	applySecrets(&cfg, kc)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at use.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if _, err := export.ParsePageSize(c.Export.PageSize); err != nil {
		errs = append(errs, fmt.Errorf("export.page_size: %w", err))
	}
	if _, err := export.ParseOrientation(c.Export.Orientation); err != nil {
		errs = append(errs, fmt.Errorf("export.orientation: %w", err))
	}
	if _, err := dataset.ParseSlot(c.Export.TableSlot); err != nil {
		errs = append(errs, fmt.Errorf("export.table_slot: %w", err))
	}
	if c.Export.SlideSettleDelay < 0 {
		errs = append(errs, errors.New("export.slide_settle_delay must not be negative"))
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		errs = append(errs, fmt.Errorf("render size %dx%d must be positive", c.Render.Width, c.Render.Height))
	}
	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, errors.New("upload.max_bytes must be positive"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q (want debug, info, warn or error)", c.Log.Level))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// keychainReader reads from the platform secret store.
type keychainReader struct{}

func (keychainReader) Get(service, account string) (string, error) {
	out, err := keychainGet(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
