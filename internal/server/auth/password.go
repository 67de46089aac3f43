package auth

import (
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/dmitrijs2005/fitkeeper/internal/common"
)

const (
	hashScheme  = "argon2id"
	saltLength  = 16
	argonTime   = 1
	argonMemory = 64 * 1024
	argonLanes  = 4
	argonKeyLen = 32
)

func deriveKey(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonLanes, argonKeyLen)
}

// HashPassword returns "argon2id$<salt hex>$<key hex>".
func HashPassword(password string) (string, error) {
	salt := common.GenerateRandByteArray(saltLength)
	if salt == nil {
		return "", fmt.Errorf("generate salt: random source unavailable")
	}
	key := deriveKey(password, salt)
	return strings.Join([]string{hashScheme, hex.EncodeToString(salt), hex.EncodeToString(key)}, "$"), nil
}

// CheckPassword reports whether password matches a hash produced by
// HashPassword. Malformed hashes never match.
func CheckPassword(hash, password string) bool {
	parts := strings.Split(hash, "$")
	if len(parts) != 3 || parts[0] != hashScheme {
		return false
	}
	salt, err := hex.DecodeString(parts[1])
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(parts[2])
	if err != nil {
		return false
	}
	key := deriveKey(password, salt)
	defer common.WipeByteArray(key)
	return subtle.ConstantTimeCompare(key, want) == 1
}
