package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the tables if they do not exist.  Statements
// are idempotent so restarting against an existing database is safe.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS rooms (
			code                   CHAR(6) PRIMARY KEY,
			voting_phase           VARCHAR(16)  NOT NULL DEFAULT 'idle',
			current_story_index    INT          NOT NULL DEFAULT 0,
			timer_duration         INT          NULL,
			timer_end_ms           BIGINT       NULL,
			last_activity          DATETIME     NOT NULL,
			issue_tracker_base_url VARCHAR(512) NULL,
			created_at             DATETIME     NOT NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS participants (
			room_code      CHAR(6)      NOT NULL,
			name           VARCHAR(64)  NOT NULL,
			is_facilitator BOOLEAN      NOT NULL DEFAULT FALSE,
			is_voter       BOOLEAN      NOT NULL DEFAULT TRUE,
			joined_at      DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (room_code, name),
			FOREIGN KEY (room_code) REFERENCES rooms(code) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS stories (
			id             BIGINT AUTO_INCREMENT PRIMARY KEY,
			room_code      CHAR(6)      NOT NULL,
			title          VARCHAR(512) NOT NULL,
			external_link  VARCHAR(512) NULL,
			order_index    INT          NOT NULL,
			final_estimate DOUBLE       NULL,
			voted_at       DATETIME     NULL,
			FOREIGN KEY (room_code) REFERENCES rooms(code) ON DELETE CASCADE,
			INDEX idx_stories_room_order (room_code, order_index)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS votes (
			room_code        CHAR(6)     NOT NULL,
			participant_name VARCHAR(64) NOT NULL,
			value            DOUBLE      NOT NULL,
			created_at       DATETIME(3) NOT NULL,
			PRIMARY KEY (room_code, participant_name),
			FOREIGN KEY (room_code) REFERENCES rooms(code) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		// Append-only; survives story edits so it keeps its own copy of
		// the title, and story_id is not a foreign key on purpose.
		// revealed_at carries milliseconds because it is half of the
		// grouping key that separates reveal generations.
		`CREATE TABLE IF NOT EXISTS vote_history (
			id               BIGINT AUTO_INCREMENT PRIMARY KEY,
			room_code        CHAR(6)      NOT NULL,
			story_id         BIGINT       NOT NULL,
			story_title      VARCHAR(512) NOT NULL,
			participant_name VARCHAR(64)  NOT NULL,
			value            DOUBLE       NOT NULL,
			voted_at         DATETIME(3)  NOT NULL,
			revealed_at      DATETIME(3)  NOT NULL,
			FOREIGN KEY (room_code) REFERENCES rooms(code) ON DELETE CASCADE,
			INDEX idx_history_room (room_code, revealed_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
