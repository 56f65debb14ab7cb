package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Role — роль пользователя. Бэкенд присылает её либо строкой ("Admin"),
// либо объектом ({"name": "Admin"}); оба варианта сводятся к имени
// при декодировании, дальше код работает только с Name.
type Role struct {
	name string
}

// NewRole создает роль по имени.
func NewRole(name string) Role {
	return Role{name: strings.TrimSpace(name)}
}

// Name возвращает имя роли.
func (r Role) Name() string {
	return r.name
}

// IsZero сообщает, что роль не задана.
func (r Role) IsZero() bool {
	return r.name == ""
}

func (r Role) String() string {
	return r.name
}

// UnmarshalJSON принимает строку, объект с полем name или null.
func (r *Role) UnmarshalJSON(data []byte) error {
	const op = "models.Role.UnmarshalJSON"
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Role{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		*r = NewRole(s)
		return nil
	case '{':
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		*r = NewRole(obj.Name)
		return nil
	default:
		return fmt.Errorf("%s: unsupported role value %s", op, string(data))
	}
}

// MarshalJSON всегда отдает роль строкой.
func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.name)
}
