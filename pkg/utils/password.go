package utils

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLen = 8

var (
	ErrPasswordTooShort   = errors.New("This password is too short. It must contain at least 8 characters.")
	ErrPasswordNumeric    = errors.New("This password is entirely numeric.")
	ErrPasswordCommon     = errors.New("This password is too common.")
	ErrPasswordTooSimilar = errors.New("The password is too similar to the username or email.")
)

// 常见弱口令（小写）
var commonPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "password123": {}, "12345678": {}, "123456789": {},
	"1234567890": {}, "qwerty123": {}, "qwertyuiop": {}, "iloveyou": {}, "sunshine": {},
	"princess": {}, "football": {}, "baseball": {}, "welcome1": {}, "admin123": {},
	"letmein1": {}, "abc12345": {}, "trustno1": {}, "passw0rd": {}, "11111111": {},
}

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPassword(pw, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}

// CheckPasswordStrength returns the first policy violation, or nil.
// attrs are user attributes (username, email) the password must not resemble.
func CheckPasswordStrength(pw string, attrs ...string) error {
	if len([]rune(pw)) < MinPasswordLen {
		return ErrPasswordTooShort
	}
	numeric := true
	for _, r := range pw {
		if !unicode.IsDigit(r) {
			numeric = false
			break
		}
	}
	if numeric {
		return ErrPasswordNumeric
	}
	lower := strings.ToLower(pw)
	if _, ok := commonPasswords[lower]; ok {
		return ErrPasswordCommon
	}
	for _, a := range attrs {
		a = strings.ToLower(strings.TrimSpace(a))
		if at := strings.IndexByte(a, '@'); at > 0 {
			a = a[:at]
		}
		if len(a) >= 3 && (strings.Contains(lower, a) || strings.Contains(a, lower)) {
			return ErrPasswordTooSimilar
		}
	}
	return nil
}
