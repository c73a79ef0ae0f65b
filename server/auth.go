package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var errInvalidLink = errors.New("invalid webhook link")

// LinkClaims identify the account a webhook link posts for.
type LinkClaims struct {
	FID string `json:"fid"`
	jwt.RegisteredClaims
}

func (s *Server) generateLinkToken(fid string) (string, error) {
	now := time.Now()
	claims := LinkClaims{
		FID: fid,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
			Subject:  fid,
		},
	}
	if ttl := s.config.LinkTTL; ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *Server) validateLinkToken(tokenString string) (*LinkClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &LinkClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*LinkClaims); ok && token.Valid && claims.FID != "" {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// resolveLink maps the last path segment of a webhook URL to a signer uuid.
// Links are either signed tokens naming an fid, or bare signer uuids issued
// before tokens existed.
func (s *Server) resolveLink(ctx context.Context, link string) (string, error) {
	link = strings.TrimSpace(link)
	if id, err := uuid.Parse(link); err == nil {
		return id.String(), nil
	}

	claims, err := s.validateLinkToken(link)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errInvalidLink, err)
	}
	if s.sessions == nil {
		return "", fmt.Errorf("session store is not configured")
	}
	return s.sessions.Lookup(ctx, claims.FID)
}
