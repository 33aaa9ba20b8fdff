package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// DefaultActivityLimit caps List when no limit is given.
const DefaultActivityLimit = 50

// ActivityRepo appends to and reads the audit log.
type ActivityRepo struct {
	db *sqlx.DB
}

// NewActivityRepo returns an ActivityRepo bound to db.
func NewActivityRepo(db *sqlx.DB) *ActivityRepo { return &ActivityRepo{db: db} }

// Append writes one entry.
func (r *ActivityRepo) Append(ctx context.Context, a model.Activity) error {
	return insertActivity(ctx, r.db, a)
}

// Record appends an entry stamped with a fresh ID and the current time.
func (r *ActivityRepo) Record(ctx context.Context, kind, description string, userID *uint64) error {
	return r.Append(ctx, model.Activity{
		ID:          uuid.NewString(),
		Type:        kind,
		Description: description,
		UserID:      userID,
		Timestamp:   time.Now().UTC(),
	})
}

// List returns the newest entries, optionally of one type.
func (r *ActivityRepo) List(ctx context.Context, limit int, kind string) ([]model.Activity, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	q := `SELECT id, type, description, user_id, created_at FROM activities`
	var args []any
	if kind != "" {
		q += ` WHERE type = ?`
		args = append(args, kind)
	}
	q += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	out := []model.Activity{}
	if err := r.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// Prune keeps the newest keep entries and deletes the rest, returning
// how many were removed.
func (r *ActivityRepo) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 1 {
		keep = 1
	}
	// MySQL rejects LIMIT inside IN (...), hence the derived table.
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM activities WHERE id NOT IN (
			SELECT id FROM (SELECT id FROM activities ORDER BY created_at DESC, id DESC LIMIT ?) AS newest
		)`, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func insertActivity(ctx context.Context, e sqlx.ExecerContext, a model.Activity) error {
	_, err := e.ExecContext(ctx,
		`INSERT INTO activities (id, type, description, user_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Type, a.Description, a.UserID, a.Timestamp)
	return err
}
