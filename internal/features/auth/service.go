package auth

import (
	"context"
	"errors"

	"go-shareguard/internal/features/user"
	"go-shareguard/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type AuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
}

type AuthServiceImpl struct {
	Users user.UserRepository
}

func NewAuthService(users user.UserRepository) AuthService {
	return &AuthServiceImpl{Users: users}
}

func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if u == nil || !u.IsActive || u.PasswordHash == "" {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return utils.GenerateToken(u.Email, u.IsAdmin)
}
