package utils

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// AccountNumberLength is the width of every generated account number.
const AccountNumberLength = 16

// GenerateAccountNumber returns the last 12 digits of the current millisecond
// timestamp followed by a random value in [1000, 9999]. Uniqueness is only
// probable; the accounts.acct_no unique constraint is the real guard.
func GenerateAccountNumber() string {
	return accountNumberAt(time.Now(), randomPad())
}

func accountNumberAt(now time.Time, pad int64) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 12 {
		ms = ms[len(ms)-12:]
	}
	if len(ms) < 12 {
		ms = strings.Repeat("0", 12-len(ms)) + ms
	}
	return ms + strconv.FormatInt(pad, 10)
}

func randomPad() int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return 1000 + time.Now().UnixNano()%9000
	}
	return 1000 + n.Int64()
}

// ValidateAccountNumber checks the 16-digit format.
func ValidateAccountNumber(accountNumber string) bool {
	if len(accountNumber) != AccountNumberLength {
		return false
	}
	for _, r := range accountNumber {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword checks if a password matches a hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Now is the open-date clock, truncated to whole seconds as the column stores it.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
