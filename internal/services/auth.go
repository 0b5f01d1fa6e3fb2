package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"cad-auth/internal/models"

	"github.com/sirupsen/logrus"
)

// AuthConfig містить налаштування flow
type AuthConfig struct {
	RedirectURL    string
	FrontendURL    string
	AllowedOrigins []string
}

// authService реалізація AuthService
type authService struct {
	cfg          AuthConfig
	stateService StateService
	discord      DiscordService
	resolver     DepartmentResolver
	tokens       TokenService
}

// NewAuthService створює новий AuthService
func NewAuthService(cfg AuthConfig, stateService StateService, discord DiscordService, resolver DepartmentResolver, tokens TokenService) AuthService {
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	return &authService{
		cfg:          cfg,
		stateService: stateService,
		discord:      discord,
		resolver:     resolver,
		tokens:       tokens,
	}
}

// Login генерує state і URL авторизації Discord
func (s *authService) Login(returnOrigin string) (*models.LoginResult, error) {
	state, err := s.stateService.Issue()
	if err != nil {
		logrus.WithError(err).Error("Failed to generate state")
		return nil, err
	}

	result := &models.LoginResult{
		AuthURL: s.discord.AuthorizationURL(s.cfg.RedirectURL, state),
		State:   state,
	}
	if origin, ok := s.allowedOrigin(returnOrigin); ok {
		result.ReturnOrigin = origin
	} else if returnOrigin != "" {
		logrus.WithField("return", returnOrigin).Warn("Ignoring return origin that is not allowed")
	}

	logrus.WithFields(logrus.Fields{
		"redirect_uri":  s.cfg.RedirectURL,
		"return_origin": result.ReturnOrigin,
	}).Info("Generated Discord login URL")

	return result, nil
}

// HandleCallback: state -> обмін коду -> профіль -> підрозділи -> токен
func (s *authService) HandleCallback(ctx context.Context, req CallbackRequest) (*models.CallbackResult, error) {
	if req.Code == "" {
		return nil, ErrMissingCode
	}
	if err := s.stateService.Validate(req.CookieState, req.State); err != nil {
		logrus.Warn("OAuth state validation failed")
		return nil, err
	}

	accessToken, err := s.discord.ExchangeCode(ctx, req.Code, s.cfg.RedirectURL)
	if err != nil {
		logrus.WithError(err).Error("Failed to exchange code")
		return nil, err
	}

	identity, err := s.discord.FetchProfile(ctx, accessToken)
	if err != nil {
		logrus.WithError(err).Error("Failed to fetch Discord profile")
		return nil, err
	}

	resolution := s.resolver.Resolve(ctx, identity.ID)

	token, expiresAt, err := s.tokens.Issue(*identity, resolution.Departments)
	if err != nil {
		logrus.WithError(err).Error("Failed to issue CAD token")
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"uid":      identity.ID,
		"overseer": resolution.Overseer,
	}).Info("Discord callback processed successfully")

	return &models.CallbackResult{
		Token:       token,
		ExpiresAt:   expiresAt,
		Identity:    *identity,
		Departments: resolution.Departments,
	}, nil
}

// ReturnOrigin повертає origin для редіректу: дозволений candidate або frontend base URL
func (s *authService) ReturnOrigin(candidate string) string {
	if origin, ok := s.allowedOrigin(candidate); ok {
		return origin
	}
	return s.cfg.FrontendURL
}

func (s *authService) allowedOrigin(candidate string) (string, bool) {
	if candidate == "" {
		return "", false
	}
	u, err := url.Parse(candidate)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}
	origin := u.Scheme + "://" + u.Host
	for _, allowed := range s.cfg.AllowedOrigins {
		if strings.EqualFold(strings.TrimRight(allowed, "/"), origin) {
			return origin, true
		}
	}
	return "", false
}
