package models

import "time"

// LoginResult містить дані для редіректу на Discord
type LoginResult struct {
	AuthURL      string
	State        string
	ReturnOrigin string
}

// CallbackResult - результат успішного callback
type CallbackResult struct {
	Token       string
	ExpiresAt   time.Time
	Identity    Identity
	Departments DepartmentList
}

// TokenInfo - перевірені claims, які повертає GET /me
type TokenInfo struct {
	UID         string   `json:"uid"`
	Username    string   `json:"username"`
	Avatar      string   `json:"avatar"`
	Departments []string `json:"departments"`
	ExpiresAt   int64    `json:"exp"`
}

// ErrorResponse - формат помилки API
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}
