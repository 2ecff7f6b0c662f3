// Package auth issues and checks the bearer tokens that bind a browser tab
// to its viewer session.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 2 * time.Hour

var ErrTokenInvalid = errors.New("token invalid")

type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type Claims struct {
	ViewerID string `json:"viewer_id"`
	jwt.RegisteredClaims
}

type TokenResponse struct {
	ViewerID    string `json:"viewer_id"`
	AccessToken string `json:"token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func NewService(secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token for viewerID.
func (s *Service) Issue(viewerID string) (TokenResponse, error) {
	if viewerID == "" {
		return TokenResponse{}, errors.New("viewer id required")
	}
	now := s.now()
	claims := Claims{
		ViewerID: viewerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   viewerID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return TokenResponse{}, err
	}
	return TokenResponse{
		ViewerID:    viewerID,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.ttl.Seconds()),
	}, nil
}

// Validate returns the viewer a token was issued for.
func (s *Service) Validate(token string) (string, error) {
	claims, err := parseClaims(token, s.secret)
	if err != nil {
		return "", err
	}
	return claims.ViewerID, nil
}

func parseClaims(token string, secret []byte) (*Claims, error) {
	parsed, err := parseClaimsFn(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.ViewerID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

var parseClaimsFn = jwt.ParseWithClaims
