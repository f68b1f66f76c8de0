package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/calebmorris/questdesk/internal/models"
)

// QuestFilter narrows quest list queries; zero values mean "no filter"
type QuestFilter struct {
	Status string
	Title  string
}

// QuestRepository defines the interface for quest-related database operations
type QuestRepository interface {
	Repository
	Create(ctx context.Context, quest *models.Quest) error
	CreateTx(ctx context.Context, tx *sqlx.Tx, quest *models.Quest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Quest, error)
	GetBySlug(ctx context.Context, slug string) (*models.Quest, error)
	Update(ctx context.Context, quest *models.Quest) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter QuestFilter, offset, limit int) ([]*models.Quest, error)
	Count(ctx context.Context, filter QuestFilter) (int, error)
	GetAllowedEmails(ctx context.Context, questID uuid.UUID) ([]string, error)
	ReplaceAllowedEmails(ctx context.Context, questID uuid.UUID, emails []string) error
}

// questRepository implements the QuestRepository interface
type questRepository struct {
	*BaseRepository
}

// NewQuestRepository creates a new QuestRepository
func NewQuestRepository(db *sqlx.DB) QuestRepository {
	return &questRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

const questInsertQuery = `
	INSERT INTO quests (id, title, slug, description, reward, status, starts_at, ends_at, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

// Create inserts a new quest into the database
func (r *questRepository) Create(ctx context.Context, quest *models.Quest) error {
	_, err := r.DB().ExecContext(
		ctx,
		questInsertQuery,
		quest.ID,
		quest.Title,
		quest.Slug,
		quest.Description,
		quest.Reward,
		quest.Status,
		quest.StartsAt,
		quest.EndsAt,
		quest.CreatedAt,
		quest.UpdatedAt,
	)

	return err
}

// CreateTx inserts a new quest within an existing transaction
func (r *questRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, quest *models.Quest) error {
	_, err := tx.ExecContext(
		ctx,
		questInsertQuery,
		quest.ID,
		quest.Title,
		quest.Slug,
		quest.Description,
		quest.Reward,
		quest.Status,
		quest.StartsAt,
		quest.EndsAt,
		quest.CreatedAt,
		quest.UpdatedAt,
	)

	return err
}

// GetByID retrieves a quest by ID
func (r *questRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Quest, error) {
	var quest models.Quest
	query := `SELECT * FROM quests WHERE id = $1 AND deleted_at IS NULL`

	err := r.DB().GetContext(ctx, &quest, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Quest not found
		}
		return nil, err
	}

	return &quest, nil
}

// GetBySlug retrieves a quest by slug
func (r *questRepository) GetBySlug(ctx context.Context, slug string) (*models.Quest, error) {
	var quest models.Quest
	query := `SELECT * FROM quests WHERE slug = $1 AND deleted_at IS NULL`

	err := r.DB().GetContext(ctx, &quest, query, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Quest not found
		}
		return nil, err
	}

	return &quest, nil
}

// Update updates an existing quest
func (r *questRepository) Update(ctx context.Context, quest *models.Quest) error {
	query := `
		UPDATE quests
		SET title = $1, slug = $2, description = $3, reward = $4, status = $5,
		    starts_at = $6, ends_at = $7, updated_at = $8
		WHERE id = $9 AND deleted_at IS NULL
	`

	quest.UpdatedAt = time.Now()

	_, err := r.DB().ExecContext(
		ctx,
		query,
		quest.Title,
		quest.Slug,
		quest.Description,
		quest.Reward,
		quest.Status,
		quest.StartsAt,
		quest.EndsAt,
		quest.UpdatedAt,
		quest.ID,
	)

	return err
}

// Delete soft-deletes a quest
func (r *questRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE quests SET deleted_at = $1, updated_at = $1 WHERE id = $2 AND deleted_at IS NULL`

	_, err := r.DB().ExecContext(ctx, query, time.Now(), id)
	return err
}

// buildQuestWhere builds the WHERE clause for a filtered quest query
func buildQuestWhere(filter QuestFilter, args []interface{}) (string, []interface{}) {
	where := "deleted_at IS NULL"
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Title != "" {
		args = append(args, "%"+filter.Title+"%")
		where += fmt.Sprintf(" AND title ILIKE $%d", len(args))
	}
	return where, args
}

// List retrieves a page of quests matching the filter, newest first
func (r *questRepository) List(ctx context.Context, filter QuestFilter, offset, limit int) ([]*models.Quest, error) {
	where, args := buildQuestWhere(filter, nil)
	args = append(args, offset, limit)
	query := fmt.Sprintf(
		`SELECT * FROM quests WHERE %s ORDER BY created_at DESC OFFSET $%d LIMIT $%d`,
		where, len(args)-1, len(args),
	)

	var quests []*models.Quest
	err := r.DB().SelectContext(ctx, &quests, query, args...)
	if err != nil {
		return nil, err
	}

	return quests, nil
}

// Count returns the number of quests matching the filter
func (r *questRepository) Count(ctx context.Context, filter QuestFilter) (int, error) {
	where, args := buildQuestWhere(filter, nil)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM quests WHERE %s`, where)

	var count int
	err := r.DB().GetContext(ctx, &count, query, args...)
	return count, err
}

// GetAllowedEmails retrieves the email allow-list for a quest
func (r *questRepository) GetAllowedEmails(ctx context.Context, questID uuid.UUID) ([]string, error) {
	var emails []string
	query := `SELECT email FROM quest_allowed_emails WHERE quest_id = $1 ORDER BY email`

	err := r.DB().SelectContext(ctx, &emails, query, questID)
	if err != nil {
		return nil, err
	}

	return emails, nil
}

// ReplaceAllowedEmails replaces the quest's email allow-list atomically
func (r *questRepository) ReplaceAllowedEmails(ctx context.Context, questID uuid.UUID, emails []string) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM quest_allowed_emails WHERE quest_id = $1`, questID); err != nil {
			return err
		}

		for _, email := range emails {
			_, err := tx.ExecContext(
				ctx,
				`INSERT INTO quest_allowed_emails (quest_id, email, created_at) VALUES ($1, $2, $3)`,
				questID, email, time.Now(),
			)
			if err != nil {
				return err
			}
		}

		return nil
	})
}
