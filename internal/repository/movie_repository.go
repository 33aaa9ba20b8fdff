package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/cinema-booking/internal/model"
)

const movieSelect = `SELECT m.id, m.title, m.genre, m.duration, m.rating, m.image, m.description,
	m.trailer, m.subtitles, m.status, m.created_at
	FROM movies m`

// MovieFilter narrows List.  Query matches title, genre or description.
type MovieFilter struct {
	Status     string
	CategoryID uint64
	Query      string
	Limit      int
}

// MovieRepo manages movies and their category links.
type MovieRepo struct {
	db *sqlx.DB
}

// NewMovieRepo returns a MovieRepo bound to db.
func NewMovieRepo(db *sqlx.DB) *MovieRepo { return &MovieRepo{db: db} }

// List returns movies, newest first, with their category IDs.
func (r *MovieRepo) List(ctx context.Context, f MovieFilter) ([]model.Movie, error) {
	var where []string
	var args []any
	if f.Status != "" {
		where = append(where, "m.status = ?")
		args = append(args, f.Status)
	}
	if f.CategoryID != 0 {
		where = append(where, "EXISTS (SELECT 1 FROM movie_categories mc WHERE mc.movie_id = m.id AND mc.category_id = ?)")
		args = append(args, f.CategoryID)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + q + "%"
		where = append(where, "(m.title LIKE ? OR m.genre LIKE ? OR m.description LIKE ?)")
		args = append(args, like, like, like)
	}
	q := movieSelect
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY m.created_at DESC, m.id DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	movies := []model.Movie{}
	if err := r.db.SelectContext(ctx, &movies, q, args...); err != nil {
		return nil, err
	}
	if err := r.attachCategories(ctx, movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// GetByID returns one movie or ErrNotFound.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (model.Movie, error) {
	var m model.Movie
	if err := r.db.GetContext(ctx, &m, movieSelect+` WHERE m.id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Movie{}, ErrNotFound
		}
		return model.Movie{}, err
	}
	list := []model.Movie{m}
	if err := r.attachCategories(ctx, list); err != nil {
		return model.Movie{}, err
	}
	return list[0], nil
}

// Create inserts a movie and links its categories in one transaction.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) (err error) {
	if m.Status == "" {
		m.Status = model.MovieActive
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO movies (title, genre, duration, rating, image, description, trailer, subtitles, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Title, m.Genre, m.Duration, m.Rating, m.Image, m.Description, m.Trailer, m.Subtitles, m.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return linkCategories(ctx, tx, m.ID, m.CategoryIDs)
}

// Update overwrites a movie's fields and replaces its category links.
func (r *MovieRepo) Update(ctx context.Context, m *model.Movie) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var exists uint64
	if err = tx.GetContext(ctx, &exists, `SELECT id FROM movies WHERE id = ? FOR UPDATE`, m.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE movies SET title = ?, genre = ?, duration = ?, rating = ?, image = ?, description = ?,
		 trailer = ?, subtitles = ?, status = ? WHERE id = ?`,
		m.Title, m.Genre, m.Duration, m.Rating, m.Image, m.Description, m.Trailer, m.Subtitles, m.Status, m.ID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM movie_categories WHERE movie_id = ?`, m.ID); err != nil {
		return err
	}
	return linkCategories(ctx, tx, m.ID, m.CategoryIDs)
}

// SetStatus activates or deactivates a movie.  Deleting a movie from the
// admin API deactivates it so existing showtimes and bookings keep their
// reference.
func (r *MovieRepo) SetStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE movies SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	_, err = r.GetByID(ctx, id)
	return err
}

func linkCategories(ctx context.Context, tx *sqlx.Tx, movieID uint64, categoryIDs []uint64) error {
	seen := map[uint64]bool{}
	for _, cid := range categoryIDs {
		if cid == 0 || seen[cid] {
			continue
		}
		seen[cid] = true
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO movie_categories (movie_id, category_id) VALUES (?, ?)`, movieID, cid); err != nil {
			if mysqlErrorIs(err, mysqlNoReferencedRow) {
				return ErrNotFound
			}
			return err
		}
	}
	return nil
}

func (r *MovieRepo) attachCategories(ctx context.Context, movies []model.Movie) error {
	if len(movies) == 0 {
		return nil
	}
	ids := make([]uint64, len(movies))
	index := make(map[uint64]int, len(movies))
	for i := range movies {
		ids[i] = movies[i].ID
		index[movies[i].ID] = i
		movies[i].CategoryIDs = []uint64{}
	}
	q, args, err := sqlx.In(`SELECT movie_id, category_id FROM movie_categories WHERE movie_id IN (?) ORDER BY category_id`, ids)
	if err != nil {
		return err
	}
	var links []struct {
		MovieID    uint64 `db:"movie_id"`
		CategoryID uint64 `db:"category_id"`
	}
	if err := r.db.SelectContext(ctx, &links, r.db.Rebind(q), args...); err != nil {
		return err
	}
	for _, l := range links {
		i := index[l.MovieID]
		movies[i].CategoryIDs = append(movies[i].CategoryIDs, l.CategoryID)
	}
	return nil
}
