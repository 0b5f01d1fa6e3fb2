package services

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"cad-auth/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testSecret   = []byte("s3cr3t")
	testIdentity = models.Identity{
		ID:       "1234",
		Username: "Alice",
		Avatar:   "https://cdn.discordapp.com/embed/avatars/0.png",
	}
	testNow = time.Unix(1700000000, 0)
)

func TestIssueToken_RoundTrip(t *testing.T) {
	token, exp, err := IssueToken(testIdentity, models.DepartmentList{models.DepartmentPBP}, testSecret, testNow, DefaultTokenTTL)
	require.NoError(t, err)
	assert.Equal(t, int64(1700021600), exp.Unix())

	claims, err := VerifyToken(token, testSecret, testNow.Add(time.Second), 0)
	require.NoError(t, err)
	assert.Equal(t, "1234", claims.UID)
	assert.Equal(t, "Alice", claims.Username)
	assert.Equal(t, testIdentity.Avatar, claims.Avatar)
	assert.Equal(t, models.DepartmentList{models.DepartmentPBP}, claims.Departments)
	assert.Equal(t, int64(1700021600), claims.ExpiresAt.Unix())
}

func TestIssueToken_WireFormat(t *testing.T) {
	token, _, err := IssueToken(testIdentity, models.DepartmentList{models.DepartmentPBF, models.DepartmentDOT}, testSecret, testNow, time.Hour)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	header, err := base64.RawURLEncoding.DecodeString(parts[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"alg":"HS256","typ":"JWT"}`, string(header))

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &body))
	assert.Equal(t, "1234", body["uid"])
	assert.Equal(t, "Alice", body["username"])
	assert.Equal(t, []interface{}{"PBF", "DOT"}, body["departments"])
	assert.Equal(t, float64(1700003600), body["exp"])
	assert.Len(t, body, 5)
}

func TestIssueToken_Refuses(t *testing.T) {
	_, _, err := IssueToken(testIdentity, models.DepartmentList{}, testSecret, testNow, time.Hour)
	assert.Error(t, err)

	_, _, err = IssueToken(testIdentity, models.DepartmentList{models.DepartmentNON, models.DepartmentPBP}, testSecret, testNow, time.Hour)
	assert.Error(t, err)

	_, _, err = IssueToken(testIdentity, models.NoDepartment(), nil, testNow, time.Hour)
	assert.Error(t, err)
}

func TestVerifyToken_Expiry(t *testing.T) {
	token, exp, err := IssueToken(testIdentity, models.NoDepartment(), testSecret, testNow, time.Hour)
	require.NoError(t, err)

	_, err = VerifyToken(token, testSecret, exp.Add(-time.Second), 0)
	assert.NoError(t, err)

	_, err = VerifyToken(token, testSecret, exp, 0)
	assert.ErrorIs(t, err, ErrExpired)

	_, err = VerifyToken(token, testSecret, exp.Add(time.Hour), 0)
	assert.ErrorIs(t, err, ErrExpired)

	// з допуском токен вважається простроченим раніше
	_, err = VerifyToken(token, testSecret, exp.Add(-30*time.Second), time.Minute)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	token, _, err := IssueToken(testIdentity, models.NoDepartment(), testSecret, testNow, time.Hour)
	require.NoError(t, err)

	_, err = VerifyToken(token, []byte("other"), testNow, 0)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifyToken_TamperedPayload(t *testing.T) {
	token, _, err := IssueToken(testIdentity, models.NoDepartment(), testSecret, testNow, time.Hour)
	require.NoError(t, err)
	parts := strings.Split(token, ".")

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	// Будь-який змінений байт payload має ламати підпис, а не парсинг
	for i := range payload {
		flipped := make([]byte, len(payload))
		copy(flipped, payload)
		flipped[i] ^= 0x01
		forged := parts[0] + "." + base64.RawURLEncoding.EncodeToString(flipped) + "." + parts[2]

		_, err := VerifyToken(forged, testSecret, testNow, 0)
		require.ErrorIs(t, err, ErrSignatureInvalid, "byte %d", i)
	}
}

func TestVerifyToken_ElevatedDepartments(t *testing.T) {
	token, _, err := IssueToken(testIdentity, models.NoDepartment(), testSecret, testNow, time.Hour)
	require.NoError(t, err)
	parts := strings.Split(token, ".")

	forgedPayload := `{"uid":"1234","username":"Alice","avatar":"","departments":["PBP","PBF","PSP","DOT","ACSO"],"exp":1800000000}`
	forged := parts[0] + "." + base64.RawURLEncoding.EncodeToString([]byte(forgedPayload)) + "." + parts[2]

	_, err = VerifyToken(forged, testSecret, testNow, 0)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifyToken_Malformed(t *testing.T) {
	sign := func(t *testing.T, header, payload string) string {
		t.Helper()
		h := base64.RawURLEncoding.EncodeToString([]byte(header))
		p := base64.RawURLEncoding.EncodeToString([]byte(payload))
		sig, err := jwt.SigningMethodHS256.Sign(h+"."+p, testSecret)
		require.NoError(t, err)
		return h + "." + p + "." + base64.RawURLEncoding.EncodeToString(sig)
	}

	tests := []struct {
		name  string
		token func(t *testing.T) string
		want  error
	}{
		{"empty", func(*testing.T) string { return "" }, ErrMalformed},
		{"two segments", func(*testing.T) string { return "a.b" }, ErrMalformed},
		{"four segments", func(*testing.T) string { return "a.b.c.d" }, ErrMalformed},
		{"empty segment", func(*testing.T) string { return "a..c" }, ErrMalformed},
		{"bad signature encoding", func(*testing.T) string { return "eyJhbGciOiJIUzI1NiJ9.e30.!!!" }, ErrSignatureInvalid},
		{"payload not json", func(t *testing.T) string {
			return sign(t, `{"alg":"HS256","typ":"JWT"}`, `not json`)
		}, ErrMalformed},
		{"missing exp", func(t *testing.T) string {
			return sign(t, `{"alg":"HS256","typ":"JWT"}`, `{"uid":"1","username":"a","avatar":"","departments":["PBP"]}`)
		}, ErrMalformed},
		{"string exp", func(t *testing.T) string {
			return sign(t, `{"alg":"HS256","typ":"JWT"}`, `{"uid":"1","username":"a","avatar":"","departments":["PBP"],"exp":"soon"}`)
		}, ErrMalformed},
		{"unknown department", func(t *testing.T) string {
			return sign(t, `{"alg":"HS256","typ":"JWT"}`, `{"uid":"1","username":"a","avatar":"","departments":["FIRE"],"exp":1800000000}`)
		}, ErrMalformed},
		{"empty departments", func(t *testing.T) string {
			return sign(t, `{"alg":"HS256","typ":"JWT"}`, `{"uid":"1","username":"a","avatar":"","departments":[],"exp":1800000000}`)
		}, ErrMalformed},
		{"NON mixed", func(t *testing.T) string {
			return sign(t, `{"alg":"HS256","typ":"JWT"}`, `{"uid":"1","username":"a","avatar":"","departments":["NON","PBP"],"exp":1800000000}`)
		}, ErrMalformed},
		{"alg none header", func(t *testing.T) string {
			return sign(t, `{"alg":"none","typ":"JWT"}`, `{"uid":"1","username":"a","avatar":"","departments":["PBP"],"exp":1800000000}`)
		}, ErrMalformed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := VerifyToken(tc.token(t), testSecret, testNow, 0)
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, IsTokenError(err))
		})
	}
}

func TestTokenService_UsesClock(t *testing.T) {
	svc := NewTokenService("s3cr3t", time.Hour, 0).(*tokenService)
	svc.now = func() time.Time { return testNow }

	token, exp, err := svc.Issue(testIdentity, models.AllDepartments())
	require.NoError(t, err)
	assert.Equal(t, testNow.Add(time.Hour).Unix(), exp.Unix())

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, models.AllDepartments(), claims.Departments)

	svc.now = func() time.Time { return exp }
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestCADClaims_Info(t *testing.T) {
	token, _, err := IssueToken(testIdentity, models.DepartmentList{models.DepartmentACSO}, testSecret, testNow, time.Hour)
	require.NoError(t, err)
	claims, err := VerifyToken(token, testSecret, testNow, 0)
	require.NoError(t, err)

	info := claims.Info()
	assert.Equal(t, "1234", info.UID)
	assert.Equal(t, []string{"ACSO"}, info.Departments)
	assert.Equal(t, testNow.Add(time.Hour).Unix(), info.ExpiresAt)
}
