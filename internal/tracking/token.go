// Package tracking issues signed, read-only links to a complaint's status and
// serves the public endpoint behind them.
package tracking

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	audience   = "complaint-tracking"
	issuer     = "civic-intake"
	TrackPath  = "/api/v1/track/"
	defaultTTL = 90 * 24 * time.Hour
)

var ErrInvalidToken = errors.New("tracking token is invalid or expired")

type claims struct {
	jwt.RegisteredClaims
}

// Issuer signs tracking tokens with HS256.
type Issuer struct {
	secret  []byte
	ttl     time.Duration
	baseURL string
	now     func() time.Time
}

func NewIssuer(secret string, ttl time.Duration, baseURL string) (*Issuer, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("tracking secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Issuer{
		secret:  []byte(secret),
		ttl:     ttl,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}, nil
}

// Issue returns a token granting read access to one complaint.
func (i *Issuer) Issue(complaintID uuid.UUID) (string, error) {
	now := i.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   complaintID.String(),
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
}

// Parse validates a token and returns the complaint it grants access to.
func (i *Issuer) Parse(tokenValue string) (uuid.UUID, error) {
	var c claims
	_, err := jwt.ParseWithClaims(tokenValue, &c, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return id, nil
}

// TrackingURL returns the public link for a complaint.
func (i *Issuer) TrackingURL(complaintID uuid.UUID) (string, error) {
	tok, err := i.Issue(complaintID)
	if err != nil {
		return "", err
	}
	return i.baseURL + TrackPath + tok, nil
}
