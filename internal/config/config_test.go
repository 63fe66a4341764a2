package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadUsesEnvSecretOverFileAndGeneration(t *testing.T) {
	root := t.TempDir()
	salt := make([]byte, 32)
	for i := range salt {
		salt[i] = byte(i)
	}
	t.Setenv("INIBASE_SECRET", hex.EncodeToString(salt))
	fileSalt := make([]byte, 32)
	for i := range fileSalt {
		fileSalt[i] = byte(31 - i)
	}
	envFile := "INIBASE_SECRET=" + hex.EncodeToString(fileSalt) + "\n"
	if err := os.WriteFile(filepath.Join(root, ".env"), []byte(envFile), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assert.Equal(t, salt, cfg.Salt)
}

func TestLoadRejectsMalformedSecret(t *testing.T) {
	root := t.TempDir()
	t.Setenv("INIBASE_SECRET", "not-hex")
	_, err := Load(root)
	assert.Error(t, err)
}

func TestLoadFallsBackToEnvFile(t *testing.T) {
	root := t.TempDir()
	salt := make([]byte, 32)
	for i := range salt {
		salt[i] = byte(31 - i)
	}
	envPath := filepath.Join(root, ".env")
	contents := "INIBASE_SECRET=" + hex.EncodeToString(salt) + "\n"
	if err := os.WriteFile(envPath, []byte(contents), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assert.Equal(t, salt, cfg.Salt)
}

func TestLoadGeneratesAndPersistsSaltWhenAbsent(t *testing.T) {
	root := t.TempDir()
	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assert.Len(t, cfg.Salt, 32)

	b, err := os.ReadFile(filepath.Join(root, ".env"))
	if err != nil {
		t.Fatalf("read generated .env: %v", err)
	}
	assert.Contains(t, string(b), "INIBASE_SECRET=")
}

func TestLoadReadsTOMLDefaultsAndEnvOverrides(t *testing.T) {
	root := t.TempDir()
	toml := "[defaults]\ncompression = true\ncache = true\nprepend = false\n"
	if err := os.WriteFile(filepath.Join(root, "inibase.toml"), []byte(toml), 0o644); err != nil {
		t.Fatalf("write toml: %v", err)
	}
	t.Setenv("INIBASE_PREPEND", "true")

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assert.True(t, cfg.Compression)
	assert.True(t, cfg.Cache)
	assert.True(t, cfg.Prepend)
}
