package services

import (
	"context"

	"cad-auth/internal/models"
)

// AuthService інтерфейс для Discord OAuth -> CAD token flow
type AuthService interface {
	Login(returnOrigin string) (*models.LoginResult, error)
	HandleCallback(ctx context.Context, req CallbackRequest) (*models.CallbackResult, error)
	ReturnOrigin(candidate string) string
}

// CallbackRequest - параметри /callback разом зі state з cookie
type CallbackRequest struct {
	Code        string
	State       string
	CookieState string
}

// MembershipStore - key-value сховище списків членства у підрозділах.
// Значення - JSON масив Discord ID. Відсутній ключ не є помилкою: Get повертає found=false.
type MembershipStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Ping(ctx context.Context) error
}

