package services

import (
	"fmt"
	"strings"
	"time"

	"cad-auth/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// DefaultTokenTTL - час життя виданого токена
const DefaultTokenTTL = 6 * time.Hour

// TokenService видає та перевіряє токени CAD
type TokenService interface {
	Issue(identity models.Identity, departments models.DepartmentList) (string, time.Time, error)
	Verify(tokenString string) (*CADClaims, error)
}

// CADClaims - payload токена: uid, username, avatar, departments, exp.
// З RegisteredClaims заповнюється лише ExpiresAt, інші поля мають omitempty.
type CADClaims struct {
	UID         string                `json:"uid"`
	Username    string                `json:"username"`
	Avatar      string                `json:"avatar"`
	Departments models.DepartmentList `json:"departments"`
	jwt.RegisteredClaims
}

// tokenService реалізація TokenService
type tokenService struct {
	secret []byte
	ttl    time.Duration
	skew   time.Duration
	now    func() time.Time
}

// NewTokenService створює новий сервіс токенів
func NewTokenService(secret string, ttl, skew time.Duration) TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &tokenService{
		secret: []byte(secret),
		ttl:    ttl,
		skew:   skew,
		now:    time.Now,
	}
}

// Issue підписує токен для користувача
func (t *tokenService) Issue(identity models.Identity, departments models.DepartmentList) (string, time.Time, error) {
	return IssueToken(identity, departments, t.secret, t.now(), t.ttl)
}

// Verify перевіряє токен поточним часом
func (t *tokenService) Verify(tokenString string) (*CADClaims, error) {
	return VerifyToken(tokenString, t.secret, t.now(), t.skew)
}

// IssueToken будує HS256 JWT з exp = now + ttl (цілі секунди)
func IssueToken(identity models.Identity, departments models.DepartmentList, secret []byte, now time.Time, ttl time.Duration) (string, time.Time, error) {
	if len(secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret is empty")
	}
	if err := departments.Validate(); err != nil {
		return "", time.Time{}, fmt.Errorf("refusing to issue token: %w", err)
	}

	expiresAt := now.Add(ttl).Truncate(time.Second)
	claims := CADClaims{
		UID:         identity.ID,
		Username:    identity.Username,
		Avatar:      identity.Avatar,
		Departments: departments,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"uid":         identity.ID,
		"departments": strings.Join(departments.Codes(), ","),
		"expires_at":  expiresAt,
	}).Info("CAD token issued")

	return signed, expiresAt, nil
}

// VerifyToken - чиста функція (token, secret, clock). Підпис перевіряється до того,
// як будь-яка частина payload декодується.
func VerifyToken(tokenString string, secret []byte, now time.Time, skew time.Duration) (*CADClaims, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return nil, ErrMalformed
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	sig, err := parser.DecodeSegment(parts[2])
	if err != nil {
		return nil, ErrSignatureInvalid
	}
	if err := jwt.SigningMethodHS256.Verify(parts[0]+"."+parts[1], sig, secret); err != nil {
		return nil, ErrSignatureInvalid
	}

	claims := &CADClaims{}
	token, _, err := parser.ParseUnverified(tokenString, claims)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, fmt.Errorf("%w: unexpected signing method %v", ErrMalformed, token.Header["alg"])
	}
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing exp", ErrMalformed)
	}
	if err := claims.Departments.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if !now.Before(claims.ExpiresAt.Time.Add(-skew)) {
		return nil, ErrExpired
	}

	return claims, nil
}

// Info конвертує claims у відповідь API
func (c *CADClaims) Info() models.TokenInfo {
	var exp int64
	if c.ExpiresAt != nil {
		exp = c.ExpiresAt.Unix()
	}
	return models.TokenInfo{
		UID:         c.UID,
		Username:    c.Username,
		Avatar:      c.Avatar,
		Departments: c.Departments.Codes(),
		ExpiresAt:   exp,
	}
}
