// Package auth holds the login password, its digest and the signed
// session cookie used by the statistics pages.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strings"
)

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// FieldPassword is the form field carrying the digest.
const FieldPassword = "password"

var ErrEmptyPassword = errors.New("please enter a password")

// GeneratePassword returns a random password drawn from letters, digits and punctuation.
func GeneratePassword(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid password length %d", length)
	}
	max := big.NewInt(int64(len(passwordAlphabet)))
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random: %w", err)
		}
		b.WriteByte(passwordAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// HashPassword trims surrounding whitespace and returns the SHA-256 digest
// of the UTF-8 bytes as 64 lowercase hex characters.
func HashPassword(password string) (string, error) {
	password = strings.TrimSpace(password)
	if password == "" {
		return "", ErrEmptyPassword
	}
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:]), nil
}

// InterceptForm returns a copy of form with the password digest appended as
// an extra "password" value. Existing values are left in place, so a form
// that already carries the plain field submits both.
func InterceptForm(form url.Values, password string) (url.Values, error) {
	digest, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	out := make(url.Values, len(form)+1)
	for k, v := range form {
		out[k] = append([]string(nil), v...)
	}
	out.Add(FieldPassword, digest)
	return out, nil
}

// SubmittedDigest picks the digest from a submitted form: the last
// "password" value, which is the one the interceptor appended.
func SubmittedDigest(form url.Values) string {
	values := form[FieldPassword]
	if len(values) == 0 {
		return ""
	}
	return values[len(values)-1]
}

// VerifyDigest compares in constant time.
func VerifyDigest(expected, submitted string) bool {
	return subtle.ConstantTimeCompare([]byte(expected), []byte(submitted)) == 1
}
