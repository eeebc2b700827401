// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads engine credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: modeller-license-key.
package secrets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ModellerLicenseKey is the secret holding the MODELLER license.
const ModellerLicenseKey = "modeller-license-key"

// envNames maps secret files to the environment variable the engines read.
var envNames = map[string]string{
	ModellerLicenseKey: "KEY_MODELLER",
}

// Secrets maps key file names to their trimmed contents.
type Secrets map[string]string

// Keys returns the loaded key names in sorted order.
func (s Secrets) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value for key, or fallback when the key is absent.
func (s Secrets) Get(key, fallback string) string {
	if v, ok := s[key]; ok {
		return v
	}
	return fallback
}

// ContainerEnv returns the environment variables passed to engine
// containers. Keys without a known variable name are not exported.
func (s Secrets) ContainerEnv() map[string]string {
	env := make(map[string]string)
	for key, name := range envNames {
		if v, ok := s[key]; ok {
			env[name] = v
		}
	}
	if v := os.Getenv(envNames[ModellerLicenseKey]); v != "" {
		if _, ok := env[envNames[ModellerLicenseKey]]; !ok {
			env[envNames[ModellerLicenseKey]] = v
		}
	}
	return env
}

// Load reads all files in dir. A missing directory is not an error; Load
// returns an empty set. Unreadable files produce a warning on warn but do
// not abort.
func Load(dir string, warn io.Writer) (Secrets, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(Secrets)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(warn, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}
