package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditRecord — запись о решении охранника, не пропустившего запрос.
type AuditRecord struct {
	ID       uuid.UUID `json:"id"`
	UserID   string    `json:"user_id,omitempty"`
	Path     string    `json:"path"`
	Guard    string    `json:"guard"`
	Decision Decision  `json:"decision"`
	Reason   string    `json:"reason,omitempty"`
	At       time.Time `json:"at"`
}
