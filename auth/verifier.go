package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when the token cannot be trusted
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when the token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidSignature is returned when the HMAC signature does not match
	ErrInvalidSignature = fmt.Errorf("%w: signature mismatch", ErrInvalidToken)

	// ErrInvalidAudience is returned when the token audience is invalid
	ErrInvalidAudience = fmt.Errorf("%w: audience mismatch", ErrInvalidToken)

	// ErrMalformedToken is returned when the token cannot be decoded
	ErrMalformedToken = fmt.Errorf("%w: malformed", ErrInvalidToken)
)

// Claims is the decoded claim set of a verified access token.
type Claims struct {
	Subject   string
	Email     string
	Role      string
	Audience  []string
	ExpiresAt time.Time
	IssuedAt  time.Time

	// Raw holds every claim exactly as it appeared in the token.
	Raw map[string]interface{}
}

// Verifier validates HS256 access tokens issued by the hosted auth provider
type Verifier struct {
	secret   []byte
	audience string
	now      func() time.Time
}

// Option configures a Verifier
type Option func(*Verifier)

// WithClock overrides the time source used for expiry checks
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		v.now = now
	}
}

// NewVerifier creates a verifier for tokens signed with secret and carrying audience
func NewVerifier(secret, audience string, opts ...Option) *Verifier {
	v := &Verifier{
		secret:   []byte(secret),
		audience: audience,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify checks the token's signature, expiry and audience and returns its claims.
// Missing subject or email is not an error here.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMalformedToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)

	mapClaims := jwt.MapClaims{}
	_, err := parser.ParseWithClaims(tokenString, mapClaims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	return newClaims(mapClaims), nil
}

// classify maps jwt parser errors onto this package's sentinels, keeping the
// parser's message for logs.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return fmt.Errorf("%w: %v", ErrInvalidAudience, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	default:
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
}

func newClaims(mc jwt.MapClaims) *Claims {
	c := &Claims{
		Raw: make(map[string]interface{}, len(mc)),
	}
	for k, val := range mc {
		c.Raw[k] = val
	}

	c.Subject, _ = mc.GetSubject()
	c.Audience, _ = mc.GetAudience()
	if exp, _ := mc.GetExpirationTime(); exp != nil {
		c.ExpiresAt = exp.Time
	}
	if iat, _ := mc.GetIssuedAt(); iat != nil {
		c.IssuedAt = iat.Time
	}
	c.Email, _ = mc["email"].(string)
	c.Role, _ = mc["role"].(string)

	return c
}
