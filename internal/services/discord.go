package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cad-auth/internal/build"
	"cad-auth/internal/models"

	"github.com/sirupsen/logrus"
)

const (
	DefaultDiscordAuthURL  = "https://discord.com/api/oauth2/authorize"
	DefaultDiscordTokenURL = "https://discord.com/api/oauth2/token"
	DefaultDiscordUserURL  = "https://discord.com/api/users/@me"
	DefaultDiscordCDNURL   = "https://cdn.discordapp.com"

	discordScope    = "identify"
	defaultUsername = "DiscordUser"

	// максимальний розмір відповіді Discord, який читаємо
	maxUpstreamBody = 1 << 20
)

// DiscordService інтерфейс для роботи з Discord OAuth2
type DiscordService interface {
	AuthorizationURL(redirectURI, state string) string
	ExchangeCode(ctx context.Context, code, redirectURI string) (string, error)
	FetchProfile(ctx context.Context, accessToken string) (*models.Identity, error)
}

// DiscordConfig містить налаштування клієнта Discord
type DiscordConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserURL      string
	CDNURL       string
	Timeout      time.Duration
}

// TokenResponse представляє відповідь Discord на обмін коду
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope,omitempty"`
}

// discordService реалізація DiscordService
type discordService struct {
	cfg        DiscordConfig
	httpClient *http.Client
}

// NewDiscordService створює новий Discord сервіс
func NewDiscordService(cfg DiscordConfig) DiscordService {
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultDiscordAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultDiscordTokenURL
	}
	if cfg.UserURL == "" {
		cfg.UserURL = DefaultDiscordUserURL
	}
	if cfg.CDNURL == "" {
		cfg.CDNURL = DefaultDiscordCDNURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &discordService{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// AuthorizationURL формує URL авторизації Discord
func (d *discordService) AuthorizationURL(redirectURI, state string) string {
	params := url.Values{}
	params.Set("client_id", d.cfg.ClientID)
	params.Set("response_type", "code")
	params.Set("scope", discordScope)
	params.Set("redirect_uri", redirectURI)
	params.Set("state", state)

	sep := "?"
	if strings.Contains(d.cfg.AuthURL, "?") {
		sep = "&"
	}
	return d.cfg.AuthURL + sep + params.Encode()
}

// ExchangeCode обмінює authorization code на access token
func (d *discordService) ExchangeCode(ctx context.Context, code, redirectURI string) (string, error) {
	logrus.WithFields(logrus.Fields{
		"redirect_uri": redirectURI,
		"token_url":    d.cfg.TokenURL,
	}).Debug("Exchanging authorization code")

	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	data := url.Values{}
	data.Set("client_id", d.cfg.ClientID)
	data.Set("client_secret", d.cfg.ClientSecret)
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", redirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", build.UserAgent())

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenExchangeFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return "", fmt.Errorf("%w: failed to read token response: %v", ErrTokenExchangeFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logrus.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"response":    truncate(string(body), 200),
		}).Error("Discord token exchange failed")
		return "", &UpstreamError{Op: "token exchange", Status: resp.StatusCode, Err: ErrTokenExchangeFailed}
	}

	var tokenResp TokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("%w: failed to parse token response: %v", ErrTokenExchangeFailed, err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrTokenExchangeFailed)
	}

	logrus.WithFields(logrus.Fields{
		"token_type": tokenResp.TokenType,
		"expires_in": tokenResp.ExpiresIn,
		"scope":      tokenResp.Scope,
	}).Debug("Received access token from Discord")

	return tokenResp.AccessToken, nil
}

// FetchProfile отримує профіль користувача Discord
func (d *discordService) FetchProfile(ctx context.Context, accessToken string) (*models.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.cfg.UserURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", build.UserAgent())

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetchFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read profile response: %v", ErrProfileFetchFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logrus.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"response":    truncate(string(body), 200),
		}).Error("Discord profile fetch failed")
		return nil, &UpstreamError{Op: "profile fetch", Status: resp.StatusCode, Err: ErrProfileFetchFailed}
	}

	var user models.DiscordUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("%w: failed to parse profile: %v", ErrProfileFetchFailed, err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: profile has no id", ErrProfileFetchFailed)
	}

	identity := &models.Identity{
		ID:       user.ID,
		Username: displayName(user),
		Avatar:   d.avatarURL(user),
	}

	logrus.WithFields(logrus.Fields{
		"uid":      identity.ID,
		"username": identity.Username,
	}).Info("Fetched Discord profile")

	return identity, nil
}

// displayName: global_name -> username -> "DiscordUser"
func displayName(u models.DiscordUser) string {
	if u.GlobalName != nil && *u.GlobalName != "" {
		return *u.GlobalName
	}
	if u.Username != "" {
		return u.Username
	}
	return defaultUsername
}

func (d *discordService) avatarURL(u models.DiscordUser) string {
	base := strings.TrimRight(d.cfg.CDNURL, "/")
	if u.Avatar == nil || *u.Avatar == "" {
		return base + "/embed/avatars/0.png"
	}
	return fmt.Sprintf("%s/avatars/%s/%s.png?size=64", base, url.PathEscape(u.ID), url.PathEscape(*u.Avatar))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
