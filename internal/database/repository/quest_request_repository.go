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

// RequestFilter narrows quest request searches; zero values mean "no filter"
type RequestFilter struct {
	Status         string
	RequesterEmail string
}

// QuestRequestRepository defines the interface for quest-request database operations
type QuestRequestRepository interface {
	Repository
	Create(ctx context.Context, request *models.QuestRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.QuestRequest, error)
	Update(ctx context.Context, request *models.QuestRequest) error
	UpdateTx(ctx context.Context, tx *sqlx.Tx, request *models.QuestRequest) error
	Search(ctx context.Context, filter RequestFilter, offset, limit int) ([]*models.QuestRequest, error)
	Count(ctx context.Context, filter RequestFilter) (int, error)
}

// questRequestRepository implements the QuestRequestRepository interface
type questRequestRepository struct {
	*BaseRepository
}

// NewQuestRequestRepository creates a new QuestRequestRepository
func NewQuestRequestRepository(db *sqlx.DB) QuestRequestRepository {
	return &questRequestRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create inserts a new quest request into the database
func (r *questRequestRepository) Create(ctx context.Context, request *models.QuestRequest) error {
	query := `
		INSERT INTO quest_requests (id, quest_title, description, requester_email, status, review_note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.DB().ExecContext(
		ctx,
		query,
		request.ID,
		request.QuestTitle,
		request.Description,
		request.RequesterEmail,
		request.Status,
		request.ReviewNote,
		request.CreatedAt,
		request.UpdatedAt,
	)

	return err
}

// GetByID retrieves a quest request by ID
func (r *questRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.QuestRequest, error) {
	var request models.QuestRequest
	query := `SELECT * FROM quest_requests WHERE id = $1`

	err := r.DB().GetContext(ctx, &request, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Request not found
		}
		return nil, err
	}

	return &request, nil
}

const questRequestUpdateQuery = `
	UPDATE quest_requests
	SET quest_title = $1, description = $2, status = $3, reviewer_id = $4,
	    review_note = $5, reviewed_at = $6, updated_at = $7
	WHERE id = $8
`

// Update updates an existing quest request
func (r *questRequestRepository) Update(ctx context.Context, request *models.QuestRequest) error {
	request.UpdatedAt = time.Now()

	_, err := r.DB().ExecContext(
		ctx,
		questRequestUpdateQuery,
		request.QuestTitle,
		request.Description,
		request.Status,
		request.ReviewerID,
		request.ReviewNote,
		request.ReviewedAt,
		request.UpdatedAt,
		request.ID,
	)

	return err
}

// UpdateTx updates a quest request within an existing transaction
func (r *questRequestRepository) UpdateTx(ctx context.Context, tx *sqlx.Tx, request *models.QuestRequest) error {
	request.UpdatedAt = time.Now()

	_, err := tx.ExecContext(
		ctx,
		questRequestUpdateQuery,
		request.QuestTitle,
		request.Description,
		request.Status,
		request.ReviewerID,
		request.ReviewNote,
		request.ReviewedAt,
		request.UpdatedAt,
		request.ID,
	)

	return err
}

// buildRequestWhere builds the WHERE clause for a filtered request query
func buildRequestWhere(filter RequestFilter, args []interface{}) (string, []interface{}) {
	where := "1=1"
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.RequesterEmail != "" {
		args = append(args, filter.RequesterEmail)
		where += fmt.Sprintf(" AND requester_email = $%d", len(args))
	}
	return where, args
}

// Search retrieves a page of quest requests matching the filter, newest first
func (r *questRequestRepository) Search(ctx context.Context, filter RequestFilter, offset, limit int) ([]*models.QuestRequest, error) {
	where, args := buildRequestWhere(filter, nil)
	args = append(args, offset, limit)
	query := fmt.Sprintf(
		`SELECT * FROM quest_requests WHERE %s ORDER BY created_at DESC OFFSET $%d LIMIT $%d`,
		where, len(args)-1, len(args),
	)

	var requests []*models.QuestRequest
	err := r.DB().SelectContext(ctx, &requests, query, args...)
	if err != nil {
		return nil, err
	}

	return requests, nil
}

// Count returns the number of quest requests matching the filter
func (r *questRequestRepository) Count(ctx context.Context, filter RequestFilter) (int, error) {
	where, args := buildRequestWhere(filter, nil)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM quest_requests WHERE %s`, where)

	var count int
	err := r.DB().GetContext(ctx, &count, query, args...)
	return count, err
}
