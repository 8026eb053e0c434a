//go:build !darwin

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// secretsPath sits in the data directory next to the export history.
func secretsPath() string {
	return filepath.Join(defaultDataDir(), "secrets.json")
}

// secretFile maps service → account → value.
type secretFile map[string]map[string]string

func readSecretFile(path string) (secretFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sf secretFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parsing secrets file %s: %w", path, err)
	}
	return sf, nil
}

func keychainGet(service, account string) ([]byte, error) {
	sf, err := readSecretFile(secretsPath())
	if err != nil {
		return nil, fmt.Errorf("secret store not available: %w", err)
	}
	val, ok := sf[service][account]
	if !ok {
		return nil, fmt.Errorf("no %s stored for %s", account, service)
	}
	return []byte(val), nil
}

// keychainSet refuses to overwrite a secrets file it cannot parse.
func keychainSet(service, account, value string) error {
	path := secretsPath()
	sf, err := readSecretFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		sf = secretFile{}
	case err != nil:
		return err
	case sf == nil:
		sf = secretFile{}
	}
	if sf[service] == nil {
		sf[service] = make(map[string]string)
	}
	sf[service][account] = value

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating secrets dir: %w", err)
	}
	out, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o600)
}
