// Package docs регистрирует swagger-документ JSON API шлюза в swag.
package docs

import (
	_ "embed"

	"github.com/swaggo/swag"
)

//go:embed swagger.json
var doc string

type swaggerDoc struct{}

// ReadDoc возвращает swagger-документ.
func (swaggerDoc) ReadDoc() string {
	return doc
}

func init() {
	swag.Register(swag.Name, swaggerDoc{})
}
