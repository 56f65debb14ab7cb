// Package models содержит доменные структуры охранника доступа:
// состояние аутентификации, пользователя с ролью, записи подписки и решение.
package models

// User представляет аутентифицированного пользователя платформы.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  Role   `json:"role"`
}

// AuthState — снимок состояния провайдера аутентификации.
// Loading переходит из true в false один раз за загрузку сессии.
type AuthState struct {
	Authenticated bool  `json:"authenticated"`
	Loading       bool  `json:"loading"`
	User          *User `json:"user"`
}

// UserID возвращает идентификатор пользователя или пустую строку.
func (a AuthState) UserID() string {
	if a.User == nil {
		return ""
	}
	return a.User.ID
}

// Anonymous — загруженное состояние без пользователя.
func Anonymous() AuthState {
	return AuthState{}
}
