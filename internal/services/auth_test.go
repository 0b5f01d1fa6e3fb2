package services

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"cad-auth/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDiscord struct {
	exchangeErr error
	profileErr  error
	identity    models.Identity

	exchanged []string
}

func (f *fakeDiscord) AuthorizationURL(redirectURI, state string) string {
	return "https://discord.test/authorize?" + url.Values{"redirect_uri": {redirectURI}, "state": {state}}.Encode()
}

func (f *fakeDiscord) ExchangeCode(_ context.Context, code, _ string) (string, error) {
	f.exchanged = append(f.exchanged, code)
	if f.exchangeErr != nil {
		return "", f.exchangeErr
	}
	return "access-" + code, nil
}

func (f *fakeDiscord) FetchProfile(_ context.Context, accessToken string) (*models.Identity, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	id := f.identity
	return &id, nil
}

func newTestAuthService(discord DiscordService, store MembershipStore) (AuthService, TokenService) {
	tokens := NewTokenService("s3cr3t", time.Hour, 0)
	svc := NewAuthService(AuthConfig{
		RedirectURL:    "https://auth.example.com/callback",
		FrontendURL:    "https://cad.example.com/",
		AllowedOrigins: []string{"https://cad.example.com", "https://staging.cad.example.com/"},
	}, NewStateService(0), discord, NewDepartmentResolver(store, "", ""), tokens)
	return svc, tokens
}

func TestAuthService_Login(t *testing.T) {
	svc, _ := newTestAuthService(&fakeDiscord{}, &fakeStore{})

	result, err := svc.Login("")
	require.NoError(t, err)
	assert.Len(t, result.State, 32)
	assert.Empty(t, result.ReturnOrigin)

	u, err := url.Parse(result.AuthURL)
	require.NoError(t, err)
	assert.Equal(t, result.State, u.Query().Get("state"))
	assert.Equal(t, "https://auth.example.com/callback", u.Query().Get("redirect_uri"))
}

func TestAuthService_LoginReturnOrigin(t *testing.T) {
	svc, _ := newTestAuthService(&fakeDiscord{}, &fakeStore{})

	tests := []struct {
		candidate string
		want      string
	}{
		{"https://staging.cad.example.com", "https://staging.cad.example.com"},
		{"https://staging.cad.example.com/some/page?x=1", "https://staging.cad.example.com"},
		{"HTTPS://CAD.EXAMPLE.COM", "https://CAD.EXAMPLE.COM"},
		{"https://evil.example.net", ""},
		{"javascript:alert(1)", ""},
		{"//cad.example.com", ""},
		{"not a url", ""},
	}

	for _, tc := range tests {
		t.Run(tc.candidate, func(t *testing.T) {
			result, err := svc.Login(tc.candidate)
			require.NoError(t, err)
			assert.Equal(t, tc.want, result.ReturnOrigin)
		})
	}
}

func TestAuthService_ReturnOriginFallback(t *testing.T) {
	svc, _ := newTestAuthService(&fakeDiscord{}, &fakeStore{})

	assert.Equal(t, "https://cad.example.com", svc.ReturnOrigin(""))
	assert.Equal(t, "https://cad.example.com", svc.ReturnOrigin("https://evil.example.net"))
	assert.Equal(t, "https://staging.cad.example.com", svc.ReturnOrigin("https://staging.cad.example.com"))
}

func TestAuthService_HandleCallback(t *testing.T) {
	discord := &fakeDiscord{identity: models.Identity{ID: "111", Username: "Alice", Avatar: "a.png"}}
	store := &fakeStore{values: map[string]string{"PBP": `["0","111"]`, "01": `["0"]`}}
	svc, tokens := newTestAuthService(discord, store)

	result, err := svc.HandleCallback(context.Background(), CallbackRequest{
		Code:        "code-1",
		State:       "abcd",
		CookieState: "abcd",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"code-1"}, discord.exchanged)
	assert.Equal(t, models.DepartmentList{models.DepartmentPBP}, result.Departments)
	assert.Equal(t, "111", result.Identity.ID)

	claims, err := tokens.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, "111", claims.UID)
	assert.Equal(t, "Alice", claims.Username)
	assert.Equal(t, result.ExpiresAt.Unix(), claims.ExpiresAt.Unix())
}

func TestAuthService_HandleCallbackRejects(t *testing.T) {
	upstream := &UpstreamError{Op: "token exchange", Status: 400, Err: ErrTokenExchangeFailed}

	tests := []struct {
		name     string
		discord  *fakeDiscord
		req      CallbackRequest
		want     error
		exchange bool
	}{
		{
			name:    "missing code",
			discord: &fakeDiscord{},
			req:     CallbackRequest{State: "s", CookieState: "s"},
			want:    ErrMissingCode,
		},
		{
			name:    "missing cookie",
			discord: &fakeDiscord{},
			req:     CallbackRequest{Code: "c", State: "s"},
			want:    ErrStateMismatch,
		},
		{
			name:    "state mismatch",
			discord: &fakeDiscord{},
			req:     CallbackRequest{Code: "c", State: "s1", CookieState: "s2"},
			want:    ErrStateMismatch,
		},
		{
			name:     "exchange failure",
			discord:  &fakeDiscord{exchangeErr: upstream},
			req:      CallbackRequest{Code: "c", State: "s", CookieState: "s"},
			want:     ErrTokenExchangeFailed,
			exchange: true,
		},
		{
			name:     "profile failure",
			discord:  &fakeDiscord{profileErr: &UpstreamError{Op: "profile fetch", Status: 401, Err: ErrProfileFetchFailed}},
			req:      CallbackRequest{Code: "c", State: "s", CookieState: "s"},
			want:     ErrProfileFetchFailed,
			exchange: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := newTestAuthService(tc.discord, &fakeStore{})
			_, err := svc.HandleCallback(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, tc.exchange, len(tc.discord.exchanged) > 0)
		})
	}
}

func TestAuthService_HandleCallbackStoreDown(t *testing.T) {
	discord := &fakeDiscord{identity: models.Identity{ID: "111", Username: "Alice"}}
	boom := errors.New("store down")
	store := &fakeStore{errs: map[string]error{"01": boom, "PBP": boom, "PBF": boom, "PSP": boom, "DOT": boom, "ACSO": boom}}
	svc, tokens := newTestAuthService(discord, store)

	result, err := svc.HandleCallback(context.Background(), CallbackRequest{Code: "c", State: "s", CookieState: "s"})
	require.NoError(t, err)
	assert.Equal(t, models.NoDepartment(), result.Departments)

	claims, err := tokens.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, models.NoDepartment(), claims.Departments)
}
