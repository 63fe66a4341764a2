// Package icrypto holds the engine's two cryptographic primitives: the
// opaque-id codec that hides raw record/foreign-key integers from callers,
// and password hashing. The id codec is keyed off a single 32-byte database
// salt (spec.md §4.2) that is threaded explicitly through every call rather
// than stored as package-level state, per spec.md §9's "avoid any global"
// design note; password hashing draws a fresh random salt for each hash.
package icrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"strconv"
)

// EncodeID opaques a record id by AES-256-CBC encrypting its decimal
// string form, keyed by salt with the IV taken from salt's first 16
// bytes, and hex-encoding the ciphertext. Returns "" if salt is malformed
// or n is negative.
func EncodeID(n int64, salt []byte) string {
	if n < 0 || len(salt) < 32 {
		return ""
	}
	plain := []byte(strconv.FormatInt(n, 10))
	block, err := aes.NewCipher(salt[:32])
	if err != nil {
		return ""
	}
	padded := pkcs7Pad(plain, aes.BlockSize)
	out := make([]byte, len(padded))
	mode := cipher.NewCBCEncrypter(block, salt[:aes.BlockSize])
	mode.CryptBlocks(out, padded)
	return hex.EncodeToString(out)
}

// DecodeID reverses EncodeID. It returns (0, false) for any malformed
// input: wrong hex, wrong block size, bad padding, or non-numeric
// plaintext, rather than panicking.
func DecodeID(opaque string, salt []byte) (int64, bool) {
	if len(salt) < 32 {
		return 0, false
	}
	raw, err := hex.DecodeString(opaque)
	if err != nil || len(raw) == 0 || len(raw)%aes.BlockSize != 0 {
		return 0, false
	}
	block, err := aes.NewCipher(salt[:32])
	if err != nil {
		return 0, false
	}
	mode := cipher.NewCBCDecrypter(block, salt[:aes.BlockSize])
	plain := make([]byte, len(raw))
	mode.CryptBlocks(plain, raw)
	unpadded, ok := pkcs7Unpad(plain, aes.BlockSize)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(string(unpadded), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsValidOpaqueID reports whether opaque decrypts to a non-negative
// integer under salt, without returning the integer itself.
func IsValidOpaqueID(opaque string, salt []byte) bool {
	_, ok := DecodeID(opaque, salt)
	return ok
}

func pkcs7Pad(b []byte, blockSize int) []byte {
	padLen := blockSize - len(b)%blockSize
	padding := make([]byte, padLen)
	for i := range padding {
		padding[i] = byte(padLen)
	}
	return append(append([]byte{}, b...), padding...)
}

func pkcs7Unpad(b []byte, blockSize int) ([]byte, bool) {
	if len(b) == 0 || len(b)%blockSize != 0 {
		return nil, false
	}
	padLen := int(b[len(b)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(b) {
		return nil, false
	}
	for _, c := range b[len(b)-padLen:] {
		if int(c) != padLen {
			return nil, false
		}
	}
	return b[:len(b)-padLen], true
}
