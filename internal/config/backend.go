package config

import (
	"fmt"
	"time"
)

// appName names the per-user directories, the macOS defaults domain and the
// secret store service.
const appName = "chartdeck"

// ConfigBackend persists the non-secret keys of the spec table. api.token
// never passes through a backend. Durations are kept in time.Duration string
// form ("150ms", "2h") so hand-edited files stay readable.
type ConfigBackend interface {
	GetString(key string) (val string, ok bool, err error)
	GetInt(key string) (val int, ok bool, err error)
	GetDuration(key string) (val time.Duration, ok bool, err error)
	SetString(key, val string) error
	SetInt(key string, val int) error
	SetDuration(key string, val time.Duration) error
}

func parseStoredDuration(key, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s for %s", s, key)
	}
	return d, nil
}
