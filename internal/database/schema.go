package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Dates and times of showtimes are kept as fixed-width strings so they
// round-trip unchanged through parseTime.
var schema = []struct {
	table string
	ddl   string
}{
	{"users", `CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name          VARCHAR(255) NOT NULL DEFAULT '',
		email         VARCHAR(255) NOT NULL,
		phone         VARCHAR(32)  NOT NULL DEFAULT '',
		password_hash VARCHAR(255) NOT NULL,
		role          VARCHAR(16)  NOT NULL DEFAULT 'user',
		status        VARCHAR(16)  NOT NULL DEFAULT 'active',
		created_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"categories", `CREATE TABLE IF NOT EXISTS categories (
		id          BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name        VARCHAR(255) NOT NULL,
		description TEXT         NOT NULL,
		color       VARCHAR(16)  NOT NULL DEFAULT '',
		created_at  DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_categories_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"movies", `CREATE TABLE IF NOT EXISTS movies (
		id          BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		title       VARCHAR(255) NOT NULL,
		genre       VARCHAR(255) NOT NULL DEFAULT '',
		duration    VARCHAR(32)  NOT NULL DEFAULT '',
		rating      VARCHAR(16)  NOT NULL DEFAULT '',
		image       VARCHAR(512) NOT NULL DEFAULT '',
		description TEXT         NOT NULL,
		trailer     VARCHAR(512) NOT NULL DEFAULT '',
		subtitles   VARCHAR(64)  NOT NULL DEFAULT '',
		status      VARCHAR(16)  NOT NULL DEFAULT 'active',
		created_at  DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_movies_status (status)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"movie_categories", `CREATE TABLE IF NOT EXISTS movie_categories (
		movie_id    BIGINT UNSIGNED NOT NULL,
		category_id BIGINT UNSIGNED NOT NULL,
		PRIMARY KEY (movie_id, category_id),
		CONSTRAINT fk_mc_movie FOREIGN KEY (movie_id) REFERENCES movies (id) ON DELETE CASCADE,
		CONSTRAINT fk_mc_category FOREIGN KEY (category_id) REFERENCES categories (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"showtimes", `CREATE TABLE IF NOT EXISTS showtimes (
		id              BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		movie_id        BIGINT UNSIGNED NOT NULL,
		show_date       CHAR(10)    NOT NULL,
		show_time       CHAR(5)     NOT NULL,
		price           INT         NOT NULL,
		max_seats       INT         NOT NULL DEFAULT 80,
		available_seats INT         NOT NULL DEFAULT 80,
		seats_per_row   INT         NOT NULL DEFAULT 0,
		status          VARCHAR(16) NOT NULL DEFAULT 'active',
		created_at      DATETIME    NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_showtimes_movie (movie_id),
		KEY idx_showtimes_date (show_date, show_time),
		CONSTRAINT fk_showtimes_movie FOREIGN KEY (movie_id) REFERENCES movies (id),
		CONSTRAINT chk_showtimes_seats CHECK (available_seats >= 0 AND available_seats <= max_seats)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"bookings", `CREATE TABLE IF NOT EXISTS bookings (
		id             CHAR(36)        NOT NULL PRIMARY KEY,
		user_id        BIGINT UNSIGNED NOT NULL,
		showtime_id    BIGINT UNSIGNED NOT NULL,
		movie_title    VARCHAR(255)    NOT NULL,
		seats          TEXT            NOT NULL,
		total_price    INT             NOT NULL,
		payment_method VARCHAR(16)     NOT NULL DEFAULT 'cash',
		status         VARCHAR(16)     NOT NULL DEFAULT 'confirmed',
		created_at     DATETIME(3)     NOT NULL,
		cancelled_at   DATETIME(3)     NULL,
		KEY idx_bookings_showtime_status (showtime_id, status),
		KEY idx_bookings_user (user_id),
		CONSTRAINT fk_bookings_user FOREIGN KEY (user_id) REFERENCES users (id),
		CONSTRAINT fk_bookings_showtime FOREIGN KEY (showtime_id) REFERENCES showtimes (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"activities", `CREATE TABLE IF NOT EXISTS activities (
		id          CHAR(36)        NOT NULL PRIMARY KEY,
		type        VARCHAR(64)     NOT NULL,
		description TEXT            NOT NULL,
		user_id     BIGINT UNSIGNED NULL,
		created_at  DATETIME(3)     NOT NULL,
		KEY idx_activities_created (created_at),
		KEY idx_activities_type (type)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
}

// Migrate creates every table that does not exist yet.  It is safe to
// run on each start.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, s := range schema {
		if _, err := db.ExecContext(ctx, s.ddl); err != nil {
			return fmt.Errorf("creating %s table: %w", s.table, err)
		}
	}
	return nil
}
