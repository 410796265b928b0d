// Package cryptox implements password hashing and the helpers around it:
// salts, the blacklist of common passwords and random passphrases.
package cryptox

import (
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"math/big"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize   = 16
	iterations = 10000
	keyLength  = 64
)

// NewSalt returns 16 random bytes, base64 encoded.
func NewSalt() (string, error) {
	b := make([]byte, saltSize)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// HashPassword derives the stored digest of password with PBKDF2-HMAC-SHA1.
// With an empty salt or password the input is returned unchanged.
func HashPassword(password, salt string) string {
	if salt == "" || password == "" {
		return password
	}
	rawSalt, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		rawSalt = []byte(salt)
	}
	key := pbkdf2.Key([]byte(password), rawSalt, iterations, keyLength, sha1.New)
	return base64.StdEncoding.EncodeToString(key)
}

// Authenticate reports whether candidate hashes to the stored digest.
func Authenticate(stored, salt, candidate string) bool {
	if stored == "" || candidate == "" {
		return false
	}
	got := HashPassword(candidate, salt)
	return subtle.ConstantTimeCompare([]byte(stored), []byte(got)) == 1
}

const passphraseAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateRandomPassphrase returns a 20 to 40 character passphrase of
// letters and digits with no character repeated three or more times in a row.
func GenerateRandomPassphrase() (string, error) {
	n, err := randInt(21)
	if err != nil {
		return "", err
	}
	length := 20 + n

	out := make([]byte, 0, length)
	for len(out) < length {
		i, err := randInt(len(passphraseAlphabet))
		if err != nil {
			return "", err
		}
		c := passphraseAlphabet[i]
		if l := len(out); l >= 2 && out[l-1] == c && out[l-2] == c {
			continue
		}
		out = append(out, c)
	}
	return string(out), nil
}

func randInt(max int) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}
