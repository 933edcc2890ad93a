package services

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// AuthService checks the single admin credential used to gate the manage
// endpoints.
type AuthService struct {
	passwordHash []byte
}

func NewAuthService(passwordHash string) *AuthService {
	return &AuthService{passwordHash: []byte(passwordHash)}
}

func (s *AuthService) Login(password string) error {
	err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		return err
	}
	return nil
}
