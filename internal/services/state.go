package services

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// StateCookieName - cookie, в якому state живе між /login та /callback
	StateCookieName = "oauth_state"
	// ReturnCookieName - cookie з origin, куди повернути браузер після входу
	ReturnCookieName = "oauth_return"

	stateBytes = 16
)

// StateService інтерфейс для роботи з CSRF state параметрами
type StateService interface {
	Issue() (string, error)
	Validate(cookieValue, returnedValue string) error
	CookieMaxAge() int
}

// stateService реалізація StateService.
// State ніде не зберігається на сервері: єдина копія лежить у короткоживучому cookie.
type stateService struct {
	ttl time.Duration
}

// NewStateService створює новий State сервіс
func NewStateService(ttl time.Duration) StateService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &stateService{ttl: ttl}
}

// Issue генерує новий state (128 біт ентропії)
func (s *stateService) Issue() (string, error) {
	randomBytes := make([]byte, stateBytes)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random state: %w", err)
	}

	state := hex.EncodeToString(randomBytes)

	logrus.WithField("state", state[:8]+"...").Debug("Generated new state parameter")
	return state, nil
}

// Validate порівнює state з cookie зі state, який повернув провайдер
func (s *stateService) Validate(cookieValue, returnedValue string) error {
	if cookieValue == "" || returnedValue == "" {
		return ErrStateMismatch
	}
	if subtle.ConstantTimeCompare([]byte(cookieValue), []byte(returnedValue)) != 1 {
		return ErrStateMismatch
	}
	return nil
}

// CookieMaxAge повертає Max-Age state cookie у секундах
func (s *stateService) CookieMaxAge() int {
	return int(s.ttl / time.Second)
}
