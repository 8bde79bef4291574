package services

import (
	"fmt"
	"strings"

	"qleon/auth"
	"qleon/errors"
	"qleon/repositories"
)

type IAuthService interface {
	Register(username, password string) (Token, error)
	Login(username, password string) (Token, error)
	Resume(token Token) (Identity, error)
}

type Token string

func (t Token) String() string {
	return string(t)
}

// Identity is the signed-in local user, the sender of every sent message.
type Identity struct {
	UserID   string
	Username string
}

type AuthService struct {
	userRepository repositories.IUserRepository
	issuer         auth.TokenIssuer
}

func NewAuthService(repo repositories.IUserRepository, issuer auth.TokenIssuer) IAuthService {
	return &AuthService{userRepository: repo, issuer: issuer}
}

func (s *AuthService) Register(username, password string) (Token, error) {
	username = strings.TrimSpace(username)

	// Rules are checked before any expensive cryptographic operation.
	if err := auth.ValidateRegister(auth.RegisterRequest{Username: username, Password: password}); err != nil {
		return "", err
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	userID, err := s.userRepository.CreateUser(username, hashedPassword)
	if err != nil {
		return "", err
	}

	token, err := s.issuer.GenerateToken(userID, username)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return Token(token), nil
}

func (s *AuthService) Login(username, password string) (Token, error) {
	user, err := s.userRepository.GetUserByUsername(strings.TrimSpace(username))
	if err != nil {
		// Generic error to prevent user enumeration
		return "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}

	token, err := s.issuer.GenerateToken(user.ID, user.Username)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return Token(token), nil
}

// Resume turns a stored session token back into an identity.
// A missing, tampered or expired token sends the user back to the login screen.
func (s *AuthService) Resume(token Token) (Identity, error) {
	if token == "" {
		return Identity{}, errors.ErrInvalidToken
	}
	claims, err := s.issuer.ValidateToken(token.String())
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}
	return Identity{UserID: claims.UserID, Username: claims.Username}, nil
}
