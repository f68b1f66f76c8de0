package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Repository is the base interface shared by all repositories
type Repository interface {
	// Transaction runs fn inside a database transaction
	Transaction(ctx context.Context, fn func(*sqlx.Tx) error) error
}

// BaseRepository holds the connection pool and provides transaction support
// for the concrete repositories embedding it
type BaseRepository struct {
	db *sqlx.DB
}

// NewBaseRepository creates a new BaseRepository
func NewBaseRepository(db *sqlx.DB) *BaseRepository {
	return &BaseRepository{db: db}
}

// Transaction runs fn inside a transaction, committing on a nil error and
// rolling back otherwise. A panic inside fn rolls back before propagating.
func (r *BaseRepository) Transaction(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}

	return tx.Commit()
}

// DB returns the underlying connection pool
func (r *BaseRepository) DB() *sqlx.DB {
	return r.db
}
