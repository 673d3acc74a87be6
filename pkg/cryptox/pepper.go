package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const pepperLength = 32

// LoadOrCreatePepper reads the pepper stored at path, creating the file with
// a fresh random value when it does not exist yet. Losing the file makes
// every stored password hash unverifiable.
func LoadOrCreatePepper(path string) ([]byte, error) {
	path = filepath.Clean(path)

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if len(data) == 0 {
			return nil, fmt.Errorf("pepper file %s is empty", path)
		}
		return data, nil
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read pepper: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create pepper dir: %w", err)
	}

	raw := make([]byte, pepperLength)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generate pepper: %w", err)
	}
	pepper := []byte(base64.RawURLEncoding.EncodeToString(raw))

	if err := os.WriteFile(path, pepper, 0o600); err != nil {
		return nil, fmt.Errorf("write pepper: %w", err)
	}
	return pepper, nil
}
