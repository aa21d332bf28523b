// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/danielhkuo/munvote/models"
)

// Issuer is the iss claim on every session token.
const Issuer = "munvote"

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrExpiredToken = errors.New("session token expired")
	ErrNoSecret     = errors.New("session secret is required")
)

// Session is the identity carried by a bearer token.
type Session struct {
	Subject     string
	Role        models.Role
	CommitteeID string
	ExpiresAt   time.Time
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Role        string `json:"role"`
	CommitteeID string `json:"committee_id,omitempty"`
}

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Sessions signs and verifies HS256 session tokens.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessions returns a signer for secret. A non-positive ttl means 12h.
func NewSessions(secret string, ttl time.Duration) (*Sessions, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrNoSecret
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Sessions{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL is the lifetime given to tokens issued without an explicit expiry.
func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for sess. A zero ExpiresAt is filled from the TTL.
func (s *Sessions) Issue(sess Session) (string, Session, error) {
	if strings.TrimSpace(sess.Subject) == "" {
		return "", Session{}, errors.New("session subject is required")
	}
	if _, ok := models.ParseRole(string(sess.Role)); !ok {
		return "", Session{}, fmt.Errorf("unknown role %q", sess.Role)
	}
	jti, err := GenerateID(16)
	if err != nil {
		return "", Session{}, err
	}

	now := s.now().UTC().Truncate(time.Second)
	if sess.ExpiresAt.IsZero() {
		sess.ExpiresAt = now.Add(s.ttl)
	}
	sess.ExpiresAt = sess.ExpiresAt.UTC().Truncate(time.Second)

	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   sess.Subject,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
		Role:        string(sess.Role),
		CommitteeID: sess.CommitteeID,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", Session{}, fmt.Errorf("sign session: %w", err)
	}
	return token, sess, nil
}

// Parse verifies token and returns the session it carries.
func (s *Sessions) Parse(token string) (Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, ErrInvalidToken
	}

	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Session{}, ErrExpiredToken
		}
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	role, ok := models.ParseRole(claims.Role)
	if !ok || strings.TrimSpace(claims.Subject) == "" {
		return Session{}, ErrInvalidToken
	}
	return Session{
		Subject:     claims.Subject,
		Role:        role,
		CommitteeID: claims.CommitteeID,
		ExpiresAt:   claims.ExpiresAt.Time.UTC(),
	}, nil
}
