package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// mockKeychain is a test double for the keychain interface.
type mockKeychain struct {
	value string
	err   error
}

func (m mockKeychain) Get(service, account string) (string, error) {
	return m.value, m.err
}

// memBackend is an in-memory ConfigBackend.
type memBackend struct {
	strs map[string]string
	ints map[string]int
	durs map[string]time.Duration
}

func newMemBackend() *memBackend {
	return &memBackend{strs: map[string]string{}, ints: map[string]int{}, durs: map[string]time.Duration{}}
}

func (b *memBackend) GetString(key string) (string, bool, error) {
	v, ok := b.strs[key]
	return v, ok, nil
}

func (b *memBackend) GetInt(key string) (int, bool, error) {
	v, ok := b.ints[key]
	return v, ok, nil
}

func (b *memBackend) GetDuration(key string) (time.Duration, bool, error) {
	v, ok := b.durs[key]
	return v, ok, nil
}

func (b *memBackend) SetString(key, val string) error { b.strs[key] = val; return nil }
func (b *memBackend) SetInt(key string, val int) error { b.ints[key] = val; return nil }
func (b *memBackend) SetDuration(key string, val time.Duration) error {
	b.durs[key] = val
	return nil
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, s := range specs {
		t.Setenv(s.env, "")
	}
}

// TestDefaults verifies all default values are applied with an empty backend.
func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(newMemBackend(), mockKeychain{err: errors.New("none")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 4100 {
		t.Errorf("Server.Port = %d, want 4100", cfg.Server.Port)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
	if cfg.Export.PageSize != "a4" || cfg.Export.Orientation != "portrait" {
		t.Errorf("Export page = %s/%s, want a4/portrait", cfg.Export.PageSize, cfg.Export.Orientation)
	}
	if cfg.Export.SlideSettleDelay != 150*time.Millisecond {
		t.Errorf("SlideSettleDelay = %v, want 150ms", cfg.Export.SlideSettleDelay)
	}
	if cfg.Export.TableSlot != "officialInstagram" {
		t.Errorf("TableSlot = %q, want officialInstagram", cfg.Export.TableSlot)
	}
	if cfg.Export.LinkColumn != "Media URL" {
		t.Errorf("LinkColumn = %q, want Media URL", cfg.Export.LinkColumn)
	}
	if cfg.Render.Width != 800 || cfg.Render.Height != 400 {
		t.Errorf("Render = %dx%d, want 800x400", cfg.Render.Width, cfg.Render.Height)
	}
	if cfg.Session.TTL != 2*time.Hour {
		t.Errorf("Session.TTL = %v, want 2h", cfg.Session.TTL)
	}
	if cfg.Upload.MaxBytes != 32<<20 {
		t.Errorf("Upload.MaxBytes = %d, want %d", cfg.Upload.MaxBytes, 32<<20)
	}
	if cfg.API.Token != "" {
		t.Errorf("API.Token = %q, want empty", cfg.API.Token)
	}
	if cfg.Storage.DataDir == "" {
		t.Error("Storage.DataDir is empty")
	}
}

func TestBackendValues(t *testing.T) {
	clearEnv(t)
	b := newMemBackend()
	b.ints["server.port"] = 5000
	b.strs["export.page_size"] = "letter"
	b.durs["session.ttl"] = 30 * time.Minute

	cfg, err := loadWith(b, mockKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.Export.PageSize != "letter" {
		t.Errorf("PageSize = %q, want letter", cfg.Export.PageSize)
	}
	if cfg.Session.TTL != 30*time.Minute {
		t.Errorf("Session.TTL = %v, want 30m", cfg.Session.TTL)
	}
}

func TestEnvOverridesBackend(t *testing.T) {
	clearEnv(t)
	b := newMemBackend()
	b.ints["server.port"] = 5000
	t.Setenv("CHARTDECK_SERVER_PORT", "6000")
	t.Setenv("CHARTDECK_EXPORT_SLIDE_SETTLE_DELAY", "1s")
	t.Setenv("CHARTDECK_LOG_LEVEL", "debug")

	cfg, err := loadWith(b, mockKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 6000 {
		t.Errorf("Server.Port = %d, want 6000", cfg.Server.Port)
	}
	if cfg.Export.SlideSettleDelay != time.Second {
		t.Errorf("SlideSettleDelay = %v, want 1s", cfg.Export.SlideSettleDelay)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
}

func TestEnvInvalidIntKeepsDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHARTDECK_RENDER_WIDTH", "wide")

	cfg, err := loadWith(newMemBackend(), mockKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Render.Width != 800 {
		t.Errorf("Render.Width = %d, want default 800", cfg.Render.Width)
	}
}

func TestTokenFromKeychain(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(newMemBackend(), mockKeychain{value: "kc-token"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.Token != "kc-token" {
		t.Errorf("API.Token = %q, want kc-token", cfg.API.Token)
	}
}

func TestTokenEnvBeatsKeychain(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHARTDECK_API_TOKEN", "env-token")

	cfg, err := loadWith(newMemBackend(), mockKeychain{value: "kc-token"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.Token != "env-token" {
		t.Errorf("API.Token = %q, want env-token", cfg.API.Token)
	}
}

func TestTokenNeverReadFromBackend(t *testing.T) {
	clearEnv(t)
	b := newMemBackend()
	b.strs["api.token"] = "plaintext"

	cfg, err := loadWith(b, mockKeychain{err: errors.New("none")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.Token != "" {
		t.Errorf("API.Token = %q, want empty", cfg.API.Token)
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	b := newMemBackend()
	b.ints["server.port"] = 70000
	b.strs["export.page_size"] = "tabloid"
	b.strs["export.table_slot"] = "nope"

	_, err := loadWith(b, mockKeychain{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"server.port", "export.page_size", "export.table_slot"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestSetKey(t *testing.T) {
	b := newMemBackend()
	noSecret := func(service, account, value string) error {
		t.Fatal("secret store should not be used")
		return nil
	}

	if err := setKey(b, noSecret, "server.port", "4200"); err != nil {
		t.Fatalf("setKey port: %v", err)
	}
	if b.ints["server.port"] != 4200 {
		t.Errorf("server.port = %d, want 4200", b.ints["server.port"])
	}
	if err := setKey(b, noSecret, "session.ttl", "45m"); err != nil {
		t.Fatalf("setKey ttl: %v", err)
	}
	if b.durs["session.ttl"] != 45*time.Minute {
		t.Errorf("session.ttl = %v, want 45m", b.durs["session.ttl"])
	}
	if err := setKey(b, noSecret, "server.port", "abc"); err == nil {
		t.Error("expected error for non-integer port")
	}
	if err := setKey(b, noSecret, "export.slide_settle_delay", "-1s"); err == nil {
		t.Error("expected error for negative duration")
	}
	if err := setKey(b, noSecret, "session.ttl", "soon"); err == nil {
		t.Error("expected error for bad duration")
	}
	if err := setKey(b, noSecret, "no.such.key", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestSetKey_SecretGoesToSecretStore(t *testing.T) {
	b := newMemBackend()
	var gotService, gotAccount, gotValue string
	store := func(service, account, value string) error {
		gotService, gotAccount, gotValue = service, account, value
		return nil
	}

	if err := setKey(b, store, "api.token", "s3cret"); err != nil {
		t.Fatalf("setKey: %v", err)
	}
	if gotService != keychainService || gotAccount != "api_token" || gotValue != "s3cret" {
		t.Errorf("secret store got (%q, %q, %q)", gotService, gotAccount, gotValue)
	}
	if _, ok := b.strs["api.token"]; ok {
		t.Error("token written to plain backend")
	}
}

func TestShowAll_MasksSecret(t *testing.T) {
	cfg := defaults()
	cfg.API.Token = "abc"

	var found bool
	for _, ki := range ShowAll(cfg) {
		if ki.Key == "api.token" {
			found = true
			if ki.Value != "(set)" {
				t.Errorf("api.token shown as %q, want (set)", ki.Value)
			}
		}
	}
	if !found {
		t.Error("api.token missing from ShowAll")
	}
	if len(ShowAll(cfg)) != len(ValidKeys()) {
		t.Error("ShowAll and ValidKeys disagree")
	}
}
