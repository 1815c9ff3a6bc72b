package utils

import (
	"errors"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// ServiceClaims identifies a trusted collaborator (bot transport, web app,
// ad-network callback) calling the ledger API.
type ServiceClaims struct {
	Service string `json:"service"`
	jwt.StandardClaims
}

// IssueServiceToken signs an HS256 token for service valid for ttl
func IssueServiceToken(secret, service string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := ServiceClaims{
		Service: service,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
			Subject:   service,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateServiceToken parses and verifies a service token
func ValidateServiceToken(tokenString, secret string) (*ServiceClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ServiceClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(*ServiceClaims)
	if !ok {
		return nil, errors.New("failed to parse token claims")
	}
	if claims.Service == "" {
		return nil, errors.New("token has no service")
	}

	return claims, nil
}
