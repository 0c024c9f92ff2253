package utils

import (
	"crypto/rand"
	"math/big"
	"net/mail"
	"strings"
	"sync/atomic"

	"golang.org/x/crypto/bcrypt"
)

const defaultHashCost = 14

var hashCost atomic.Int64

func init() {
	hashCost.Store(defaultHashCost)
}

// SetHashCost overrides the bcrypt cost used by HashPassword and HashSecret.
// Values outside bcrypt's accepted range fall back to the default.
func SetHashCost(cost int) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = defaultHashCost
	}
	hashCost.Store(int64(cost))
}

// HashPassword hashes a plain password using bcrypt.
func HashPassword(password string) (string, error) {
	return hashSecret(password)
}

// HashSecret hashes a short secret such as a card verification code.
func HashSecret(secret string) (string, error) {
	return hashSecret(secret)
}

func hashSecret(s string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(s), int(hashCost.Load()))
	return string(bytes), err
}

// CheckPasswordHash compares a plain password with a bcrypt hash.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IsEmail returns true if the string is a valid email address.
func IsEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

// RandomInt returns a uniform random integer in [min, max) drawn from crypto/rand.
func RandomInt(min, max int64) (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(max-min))
	if err != nil {
		return 0, err
	}
	return n.Int64() + min, nil
}

// MaskAccountNumber keeps the first four and last two characters.
func MaskAccountNumber(number string) string {
	if len(number) < 6 {
		return "****"
	}
	return number[:4] + "****" + number[len(number)-2:]
}

// MaskCardNumber renders a card number as "**** **** **** 1234".
func MaskCardNumber(number string) string {
	if len(number) < 4 {
		return "**** **** **** ****"
	}
	return "**** **** **** " + number[len(number)-4:]
}

// MaskEmail hides the local part of an address except its first character.
func MaskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
