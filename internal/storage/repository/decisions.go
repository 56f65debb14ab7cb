package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/publiccircle/access-gateway/internal/models"
)

// SaveDecision сохраняет запись аудита. Повторная вставка того же ID игнорируется.
func (s *Storage) SaveDecision(ctx context.Context, rec models.AuditRecord) error {
	const op = "storage.SaveDecision"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO access_decisions (id, user_id, path, guard, decision, reason, decided_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  ON CONFLICT (id) DO NOTHING`
	_, err := s.DB.ExecContext(ctx, query,
		rec.ID, nullString(rec.UserID), rec.Path, rec.Guard, string(rec.Decision), nullString(rec.Reason), rec.At)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListDecisions возвращает записи пользователя, новые первыми.
func (s *Storage) ListDecisions(ctx context.Context, userID string, limit, offset int) ([]models.AuditRecord, error) {
	const op = "storage.ListDecisions"

	query := `SELECT id, user_id, path, guard, decision, reason, decided_at
			  FROM access_decisions
			  WHERE user_id = $1
			  ORDER BY decided_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var res []models.AuditRecord
	for rows.Next() {
		var (
			rec      models.AuditRecord
			uid      sql.NullString
			reason   sql.NullString
			decision string
		)
		if err := rows.Scan(&rec.ID, &uid, &rec.Path, &rec.Guard, &decision, &reason, &rec.At); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		rec.UserID = uid.String
		rec.Reason = reason.String
		rec.Decision = models.Decision(decision)
		res = append(res, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
