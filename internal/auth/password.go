package auth

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrBadCredentials = errors.New("invalid credentials")

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("empty password")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func ComparePassword(hash, password string) error {
	if hash == "" || password == "" {
		return errors.New("missing hash or password")
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// Credentials holds the single operator account. Hash wins over Password
// when both are set.
type Credentials struct {
	User     string
	Password string
	Hash     string
}

func (c Credentials) Configured() bool {
	return c.User != "" && (c.Hash != "" || c.Password != "")
}

func (c Credentials) Check(user, password string) error {
	if !c.Configured() || user == "" || password == "" {
		return ErrBadCredentials
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(c.User)) == 1
	var passOK bool
	if c.Hash != "" {
		passOK = ComparePassword(c.Hash, password) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(c.Password)) == 1
	}
	if !userOK || !passOK {
		return ErrBadCredentials
	}
	return nil
}
