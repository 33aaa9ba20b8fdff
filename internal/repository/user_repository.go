package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/cinema-booking/internal/model"
)

const userSelect = `SELECT id, name, email, phone, password_hash, role, status, created_at FROM users`

// UserRepo manages the users table.
type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

// NormalizeEmail lower-cases and trims an address before it is stored or
// looked up.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Create inserts user and assigns its ID.  PasswordHash must already be
// a bcrypt hash.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	if u.Status == "" {
		u.Status = model.UserActive
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, phone, password_hash, role, status) VALUES (?,?,?,?,?,?)",
		u.Name, u.Email, u.Phone, u.PasswordHash, u.Role, u.Status)
	if err != nil {
		if mysqlErrorIs(err, mysqlDuplicateEntry) {
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*u = created
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.get(ctx, userSelect+" WHERE email=? LIMIT 1", NormalizeEmail(email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.get(ctx, userSelect+" WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) get(ctx context.Context, q string, arg any) (model.User, error) {
	var u model.User
	if err := r.DB.GetContext(ctx, &u, q, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, err
	}
	return u, nil
}

// List returns every user ordered by ID.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	out := []model.User{}
	if err := r.DB.SelectContext(ctx, &out, userSelect+" ORDER BY id"); err != nil {
		return nil, err
	}
	return out, nil
}

// Update overwrites profile, role and status.  The password hash is only
// replaced when non-empty.
func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	q := "UPDATE users SET name=?, email=?, phone=?, role=?, status=?"
	args := []any{u.Name, u.Email, u.Phone, u.Role, u.Status}
	if u.PasswordHash != "" {
		q += ", password_hash=?"
		args = append(args, u.PasswordHash)
	}
	q += " WHERE id=?"
	args = append(args, u.ID)
	if _, err := r.DB.ExecContext(ctx, q, args...); err != nil {
		if mysqlErrorIs(err, mysqlDuplicateEntry) {
			return ErrEmailExists
		}
		return err
	}
	updated, err := r.GetByID(ctx, u.ID)
	if err != nil {
		return err
	}
	*u = updated
	return nil
}

// Delete removes a user.  Users that own bookings cannot be removed and
// yield ErrConflict; deactivate them instead.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		if mysqlErrorIs(err, mysqlRowIsReferenced) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
