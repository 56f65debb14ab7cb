// Package sl содержит вспомогательные функции для работы с логгером slog.
// Основная цель — единообразные поля лога для ошибок и решений охранника доступа.
package sl

import "log/slog"

// Err возвращает slog.Attr с ключом "error" и текстом ошибки.
// Для nil-ошибки значение пустое, чтобы вызов в ветке без ошибки не паниковал.
//
// Пример:
//
//	log.Error("failed to fetch subscription status", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Path возвращает атрибут с запрошенным путём.
func Path(p string) slog.Attr {
	return slog.String("path", p)
}

// User возвращает атрибут с идентификатором пользователя.
func User(id string) slog.Attr {
	return slog.String("user_id", id)
}
