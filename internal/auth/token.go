package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/bus-tracking/internal/domain"
)

var (
	// ErrMissingSecret is returned when a TokenManager is built without a signing secret.
	ErrMissingSecret = errors.New("auth: signing secret not configured")
	// ErrInvalidToken covers malformed, tampered or otherwise unverifiable tokens.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrExpiredToken is returned for correctly signed tokens past their expiry.
	ErrExpiredToken = errors.New("auth: token expired")
)

const defaultTTL = 7 * 24 * time.Hour

// Claims are the identity facts carried by an access token.
type Claims struct {
	SubjectID string
	Role      domain.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type tokenClaims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithClock overrides the time source used for issuing and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(tm *TokenManager) {
		if now != nil {
			tm.now = now
		}
	}
}

// WithIssuer sets the iss claim on issued tokens.
func WithIssuer(issuer string) TokenOption {
	return func(tm *TokenManager) {
		tm.issuer = issuer
	}
}

// NewTokenManager builds a new manager. It refuses an empty secret.
func NewTokenManager(secret string, ttl time.Duration, opts ...TokenOption) (*TokenManager, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	tm := &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(tm)
	}
	return tm, nil
}

// TTL returns the lifetime applied to tokens without an explicit expiry.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Issue signs a token for c. Zero IssuedAt/ExpiresAt are filled from the clock
// and TTL; both are truncated to whole seconds. The returned Claims are exactly
// what Verify will decode.
func (tm *TokenManager) Issue(c Claims) (string, Claims, error) {
	if c.SubjectID == "" {
		return "", Claims{}, errors.New("auth: subject required")
	}
	if !c.Role.Valid() {
		return "", Claims{}, errors.New("auth: unknown role")
	}
	if c.IssuedAt.IsZero() {
		c.IssuedAt = tm.now()
	}
	if c.ExpiresAt.IsZero() {
		c.ExpiresAt = c.IssuedAt.Add(tm.ttl)
	}
	c.IssuedAt = c.IssuedAt.Truncate(time.Second).UTC()
	c.ExpiresAt = c.ExpiresAt.Truncate(time.Second).UTC()

	claims := &tokenClaims{
		Role: c.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tm.issuer,
			Subject:   c.SubjectID,
			ExpiresAt: jwt.NewNumericDate(c.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(c.IssuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", Claims{}, err
	}
	return tokenString, c, nil
}

func (tm *TokenManager) keyFunc(token *jwt.Token) (interface{}, error) {
	if token.Method != jwt.SigningMethodHS256 {
		return nil, errors.New("unexpected signing method")
	}
	return tm.secret, nil
}

// Verify validates the signature and expiry of tokenStr and returns its claims.
// ErrExpiredToken is only reported for tokens whose signature checks out.
func (tm *TokenManager) Verify(tokenStr string) (Claims, error) {
	methods := jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})
	parsed, err := jwt.ParseWithClaims(tokenStr, &tokenClaims{}, tm.keyFunc,
		methods,
		jwt.WithTimeFunc(tm.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			if _, sigErr := jwt.ParseWithClaims(tokenStr, &tokenClaims{}, tm.keyFunc, methods, jwt.WithoutClaimsValidation()); sigErr != nil {
				return Claims{}, ErrInvalidToken
			}
			return Claims{}, ErrExpiredToken
		}
		return Claims{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.Subject == "" || !claims.Role.Valid() || claims.IssuedAt == nil {
		return Claims{}, ErrInvalidToken
	}

	return Claims{
		SubjectID: claims.Subject,
		Role:      claims.Role,
		IssuedAt:  claims.IssuedAt.Time.UTC(),
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}, nil
}
