package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/planning-poker/internal/model"
)

// Store is the persistence contract consumed by the room service.  It
// deliberately mirrors the five tables of the data model with plain
// key-based operations; all state machine logic lives above it.
// WithinTx runs a closure against a transaction-bound Store so that
// multi-entity transitions (clear votes + update room + stamp story +
// insert history) and the reorder reindex are atomic.
type Store interface {
	GetRoom(ctx context.Context, code string) (*model.Room, error)
	CreateRoom(ctx context.Context, room *model.Room) error
	SaveRoom(ctx context.Context, room *model.Room) error
	DeleteRoomsInactiveBefore(ctx context.Context, cutoff int64) (int64, error)

	GetParticipant(ctx context.Context, code, name string) (*model.Participant, error)
	ListParticipants(ctx context.Context, code string) ([]model.Participant, error)
	UpsertParticipant(ctx context.Context, p *model.Participant) error
	DeleteParticipant(ctx context.Context, code, name string) error

	GetStory(ctx context.Context, code string, id int64) (*model.Story, error)
	ListStories(ctx context.Context, code string) ([]model.Story, error)
	InsertStory(ctx context.Context, s *model.Story) error
	InsertStories(ctx context.Context, stories []*model.Story) error
	UpdateStory(ctx context.Context, s *model.Story) error
	DeleteStory(ctx context.Context, code string, id int64) error
	ReindexStories(ctx context.Context, code string, orderedIDs []int64) error

	ListVotes(ctx context.Context, code string) ([]model.Vote, error)
	UpsertVote(ctx context.Context, v *model.Vote) error
	DeleteVote(ctx context.Context, code, name string) error
	ClearVotes(ctx context.Context, code string) error

	InsertHistory(ctx context.Context, entries []model.VoteHistoryEntry) error
	ListHistory(ctx context.Context, code string) ([]model.VoteHistoryEntry, error)

	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

// dbtx is satisfied by both *sql.DB and *sql.Tx so that every query in
// this package can run either standalone or inside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// MySQLStore implements Store against MySQL.  The zero tx means
// queries run directly on the pool; WithinTx hands out a tx-bound copy.
type MySQLStore struct {
	db *sql.DB
	tx *sql.Tx
}

// NewStore returns a MySQLStore bound to the provided database.
func NewStore(db *sql.DB) *MySQLStore { return &MySQLStore{db: db} }

// q returns the active query target: the transaction when present,
// the pool otherwise.
func (s *MySQLStore) q() dbtx {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// WithinTx begins a transaction, runs fn against a Store bound to it
// and commits, rolling back when fn returns an error.  Nested calls
// reuse the already-open transaction: MySQL has no transaction nesting
// and the composed operations do not need savepoints.
func (s *MySQLStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&MySQLStore{db: s.db, tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
