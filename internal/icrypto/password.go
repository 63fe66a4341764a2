package icrypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const (
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 64
	saltLen      = 16
)

// HashPassword derives a scrypt key from pw with a fresh random salt and
// returns "hex(key).hex(salt)". The fixed output length (passwordHashLen
// in the codec package) doubles as a cheap type-detection signature for
// union-typed fields.
func HashPassword(pw string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("icrypto: generate salt: %w", err)
	}
	key, err := scrypt.Key([]byte(pw), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", fmt.Errorf("icrypto: scrypt: %w", err)
	}
	return hex.EncodeToString(key) + "." + hex.EncodeToString(salt), nil
}

// ComparePassword re-derives the scrypt key for pw using the salt
// embedded in hashed and compares it to the stored key in constant time.
func ComparePassword(hashed, pw string) bool {
	keyHex, saltHex, ok := strings.Cut(hashed, ".")
	if !ok {
		return false
	}
	wantKey, err := hex.DecodeString(keyHex)
	if err != nil {
		return false
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}
	gotKey, err := scrypt.Key([]byte(pw), salt, scryptN, scryptR, scryptP, len(wantKey))
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(wantKey, gotKey) == 1
}

// DeriveSalt produces the 32-byte database salt from two random 16-byte
// inputs via scrypt, used once at database init when INIBASE_SECRET is
// not configured (spec.md §4.2).
func DeriveSalt(password, salt []byte) ([]byte, error) {
	key, err := scrypt.Key(password, salt, scryptN, scryptR, scryptP, 32)
	if err != nil {
		return nil, fmt.Errorf("icrypto: derive salt: %w", err)
	}
	return key, nil
}
