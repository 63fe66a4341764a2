// Package config loads the engine-wide secret and per-database defaults
// of spec.md §4.10/§6: the opaque-id salt from INIBASE_SECRET (env,
// .env, or freshly generated), and optional compression/cache/prepend
// defaults from environment variables or an inibase.toml file, decoded
// the way the teacher's internal/parser/toml decodes its schema TOML
// (BurntSushi/toml, struct tags, decode-into-struct).
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"inibase/internal/icrypto"
)

// Config is the resolved engine configuration for one database root.
type Config struct {
	Salt        []byte
	Compression bool
	Cache       bool
	Prepend     bool
	EngineRoot  string
}

// tomlFile mirrors <root>/inibase.toml's shape.
type tomlFile struct {
	Engine struct {
		Root string `toml:"root"`
	} `toml:"engine"`
	Defaults struct {
		Compression bool `toml:"compression"`
		Cache       bool `toml:"cache"`
		Prepend     bool `toml:"prepend"`
	} `toml:"defaults"`
}

// Load resolves a database root's configuration per spec.md §4.10: read
// inibase.toml first (if present) for defaults, then let environment
// variables override. The salt comes from INIBASE_SECRET, then from a
// ".env"-style "INIBASE_SECRET=" line under root, and is freshly
// generated and appended to .env as a last resort.
func Load(root string) (*Config, error) {
	cfg := &Config{EngineRoot: root}

	if tf, err := readTOML(filepath.Join(root, "inibase.toml")); err == nil && tf != nil {
		cfg.Compression = tf.Defaults.Compression
		cfg.Cache = tf.Defaults.Cache
		cfg.Prepend = tf.Defaults.Prepend
		if tf.Engine.Root != "" {
			cfg.EngineRoot = tf.Engine.Root
		}
	} else if err != nil {
		return nil, err
	}

	if v, ok := os.LookupEnv("INIBASE_COMPRESSION"); ok {
		cfg.Compression = parseBool(v)
	}
	if v, ok := os.LookupEnv("INIBASE_CACHE"); ok {
		cfg.Cache = parseBool(v)
	}
	if v, ok := os.LookupEnv("INIBASE_PREPEND"); ok {
		cfg.Prepend = parseBool(v)
	}

	salt, err := resolveSalt(root)
	if err != nil {
		return nil, err
	}
	cfg.Salt = salt
	return cfg, nil
}

func readTOML(path string) (*tomlFile, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil
	}
	var tf tomlFile
	if _, err := toml.DecodeFile(path, &tf); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &tf, nil
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}

func resolveSalt(root string) ([]byte, error) {
	if hexSalt, ok := os.LookupEnv("INIBASE_SECRET"); ok {
		return decodeSalt(hexSalt)
	}

	envPath := filepath.Join(root, ".env")
	if hexSalt, ok := readEnvFile(envPath); ok {
		return decodeSalt(hexSalt)
	}

	salt, err := generateSalt()
	if err != nil {
		return nil, err
	}
	if err := appendEnvSecret(envPath, salt); err != nil {
		return nil, err
	}
	return salt, nil
}

func decodeSalt(hexSalt string) ([]byte, error) {
	salt, err := hex.DecodeString(strings.TrimSpace(hexSalt))
	if err != nil {
		return nil, fmt.Errorf("config: INIBASE_SECRET is not valid hex: %w", err)
	}
	if len(salt) != 32 {
		return nil, fmt.Errorf("config: INIBASE_SECRET must decode to 32 bytes, got %d", len(salt))
	}
	return salt, nil
}

func readEnvFile(path string) (string, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if val, ok := strings.CutPrefix(line, "INIBASE_SECRET="); ok {
			return val, true
		}
	}
	return "", false
}

// generateSalt derives the 32-byte database salt from two random
// 16-byte inputs via scrypt, per spec.md §4.2.
func generateSalt() ([]byte, error) {
	password := make([]byte, 16)
	saltInput := make([]byte, 16)
	if _, err := rand.Read(password); err != nil {
		return nil, fmt.Errorf("config: generate salt entropy: %w", err)
	}
	if _, err := rand.Read(saltInput); err != nil {
		return nil, fmt.Errorf("config: generate salt entropy: %w", err)
	}
	return icrypto.DeriveSalt(password, saltInput)
}

func appendEnvSecret(path string, salt []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "INIBASE_SECRET=%s\n", hex.EncodeToString(salt))
	if err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
