package users

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/userdeck/userdeck/pkg/config"
	errs "github.com/userdeck/userdeck/pkg/errors"
	"github.com/userdeck/userdeck/pkg/types"
)

// AuthService issues and verifies the bearer tokens guarding the API
type AuthService struct {
	config     config.AuthConfig
	repository *Repository
}

// NewAuthService creates a new authentication service
func NewAuthService(cfg config.AuthConfig, repository *Repository) *AuthService {
	return &AuthService{
		config:     cfg,
		repository: repository,
	}
}

// Authenticate checks a username/password pair against the account store.
// The three failure modes stay distinguishable: an unknown user, a disabled
// account, and a wrong password each carry their own cause.
func (as *AuthService) Authenticate(username, password string) (*User, error) {
	user, err := as.repository.GetByUsername(username)
	if err != nil {
		return nil, internal(err)
	}
	if user == nil {
		return nil, errs.NewNotFound("user not found")
	}
	if !user.Status {
		return nil, errs.NewForbidden("user is disabled")
	}
	if !CheckPassword(password, user.Password) {
		return nil, errs.NewUnauthorized("incorrect password")
	}
	return user, nil
}

// IssueToken signs a bearer grant for the account
func (as *AuthService) IssueToken(user *User) (*types.TokenGrant, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.Username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(as.config.TokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(as.config.Secret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &types.TokenGrant{
		AccessToken: signed,
		TokenType:   as.config.TokenType,
		ExpiresIn:   int64(as.config.TokenTTL.Seconds()),
	}, nil
}

// VerifyToken parses and validates a bearer token and returns the account it
// names. Every rejection collapses to the same unauthorized error so callers
// learn nothing about why a token failed.
func (as *AuthService) VerifyToken(tokenString string) (*User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(as.config.Secret), nil
	})
	if err != nil {
		return nil, errs.NewUnauthorized("invalid credentials")
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, errs.NewUnauthorized("invalid credentials")
	}

	user, err := as.repository.GetByUsername(claims.Subject)
	if err != nil {
		return nil, internal(err)
	}
	if user == nil {
		return nil, errs.NewUnauthorized("invalid credentials")
	}
	return user, nil
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword verifies a password against its bcrypt hash
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
