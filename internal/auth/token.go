package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cx-tal-miterani/flight-seats-distributor/pkg/wallet"
)

const issuer = "flight-seats-distributor"

var (
	ErrInvalidLogin = errors.New("invalid login signature")
	ErrLoginExpired = errors.New("login request outside the accepted window")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims represents the JWT claims structure
type Claims struct {
	Address wallet.Address `json:"address"`
	jwt.RegisteredClaims
}

// TokenService issues and validates caller tokens
type TokenService struct {
	secret      []byte
	expiry      time.Duration
	loginWindow time.Duration
	now         func() time.Time
}

func NewTokenService(secret string, expiry, loginWindow time.Duration) *TokenService {
	return &TokenService{
		secret:      []byte(secret),
		expiry:      expiry,
		loginWindow: loginWindow,
		now:         time.Now,
	}
}

// Login exchanges a signature over the login digest for a token. issuedAt
// must be within the login window of the current time.
func (s *TokenService) Login(addr wallet.Address, issuedAt int64, signature []byte) (string, time.Time, error) {
	now := s.now()
	skew := now.Sub(time.Unix(issuedAt, 0))
	if skew < -s.loginWindow || skew > s.loginWindow {
		return "", time.Time{}, ErrLoginExpired
	}

	digest, err := wallet.LoginDigest(addr, issuedAt)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", ErrInvalidLogin, err)
	}
	if err := wallet.Verify(addr, digest, signature); err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", ErrInvalidLogin, err)
	}
	return s.Issue(addr)
}

// Issue signs a token for addr without a login proof.
func (s *TokenService) Issue(addr wallet.Address) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.expiry)
	claims := Claims{
		Address: addr,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   addr.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expires, nil
}

// Validate parses a token and returns its claims
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject != claims.Address.String() {
		return nil, fmt.Errorf("%w: subject mismatch", ErrInvalidToken)
	}
	return claims, nil
}
