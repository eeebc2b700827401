// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  Secrets
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "modeller-license-key", "  MODELIRANJE  \n")
				writeFile(t, dir, "rcsb-token", "tok\n")
				return dir
			},
			want: Secrets{
				"modeller-license-key": "MODELIRANJE",
				"rcsb-token":           "tok",
			},
		},
		{
			name: "returns empty set for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: Secrets{},
		},
		{
			name: "skips empty files and dotfiles",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "modeller-license-key", "valid")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				writeFile(t, dir, ".gitkeep", "")
				return dir
			},
			want: Secrets{"modeller-license-key": "valid"},
		},
		{
			name: "skips subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "modeller-license-key", "k")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: Secrets{"modeller-license-key": "k"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t), io.Discard)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSecrets_ContainerEnv(t *testing.T) {
	t.Setenv("KEY_MODELLER", "")

	s := Secrets{"modeller-license-key": "MODELIRANJE", "other": "x"}
	assert.Equal(t, map[string]string{"KEY_MODELLER": "MODELIRANJE"}, s.ContainerEnv())
	assert.Empty(t, Secrets{}.ContainerEnv())
}

func TestSecrets_ContainerEnvFallsBackToEnvironment(t *testing.T) {
	t.Setenv("KEY_MODELLER", "from-env")

	assert.Equal(t, map[string]string{"KEY_MODELLER": "from-env"}, Secrets{}.ContainerEnv())
	assert.Equal(t, "file", Secrets{"modeller-license-key": "file"}.ContainerEnv()["KEY_MODELLER"])
}

func TestSecrets_KeysAndGet(t *testing.T) {
	s := Secrets{"b": "2", "a": "1"}
	assert.Equal(t, []string{"a", "b"}, s.Keys())
	assert.Equal(t, "1", s.Get("a", "x"))
	assert.Equal(t, "x", s.Get("missing", "x"))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
