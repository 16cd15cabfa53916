// Package complaints persists registered users and their complaint records
// in PostgreSQL.
package complaints

import (
	"context"
	"errors"
	"fmt"

	"nirvana_backend/internal/intake/domain"
	"nirvana_backend/platform/phone"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const complaintColumns = `id, user_id, title, description, category, severity_score,
	latitude, longitude, COALESCE(image_ref, ''), status, created_at`

type Repository struct {
	pool   *pgxpool.Pool
	region string
}

// New creates a repository. region is the default phone region used to
// expand sender IDs into the spellings stored in users.phone_number.
func New(pool *pgxpool.Pool, region string) *Repository {
	if region == "" {
		region = phone.DefaultRegion
	}
	return &Repository{pool: pool, region: region}
}

// LookupUser finds the registered user for a messaging sender ID. Phone
// numbers are matched in every stored spelling (with or without "+",
// country code or national form).
func (r *Repository) LookupUser(ctx context.Context, senderID string) (domain.User, error) {
	variants := phone.Variants(senderID, r.region)
	if len(variants) == 0 {
		return domain.User{}, domain.ErrUserNotFound
	}

	var user domain.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, phone_number, name
		FROM users
		WHERE phone_number = ANY($1)
		ORDER BY array_position($1, phone_number)
		LIMIT 1
	`, variants).Scan(&user.ID, &user.PhoneNumber, &user.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

// CreateComplaint inserts a new record. Records are never updated by the
// intake flow.
func (r *Repository) CreateComplaint(ctx context.Context, c domain.NewComplaint) (domain.Complaint, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO complaints (id, user_id, title, description, category, severity_score,
			latitude, longitude, image_ref, image_label)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), NULLIF($10, ''))
		RETURNING `+complaintColumns,
		uuid.New(),
		c.UserID,
		c.Title,
		c.Description,
		c.Category.String(),
		domain.ClampSeverity(c.SeverityScore),
		c.Location.Latitude,
		c.Location.Longitude,
		c.ImageRef,
		c.ImageLabel,
	)
	complaint, err := scanComplaint(row)
	if err != nil {
		return domain.Complaint{}, fmt.Errorf("create complaint: %w", err)
	}
	return complaint, nil
}

// ListComplaints returns the user's complaints, newest first. limit <= 0
// returns all of them.
func (r *Repository) ListComplaints(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Complaint, error) {
	var maxRows *int
	if limit > 0 {
		maxRows = &limit
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+complaintColumns+`
		FROM complaints
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, maxRows)
	if err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	defer rows.Close()

	complaints := make([]domain.Complaint, 0)
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan complaint: %w", err)
		}
		complaints = append(complaints, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	return complaints, nil
}

// GetComplaint returns domain.ErrComplaintNotFound for unknown IDs.
func (r *Repository) GetComplaint(ctx context.Context, id uuid.UUID) (domain.Complaint, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+complaintColumns+`
		FROM complaints
		WHERE id = $1
	`, id)
	c, err := scanComplaint(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Complaint{}, domain.ErrComplaintNotFound
	}
	if err != nil {
		return domain.Complaint{}, fmt.Errorf("get complaint: %w", err)
	}
	return c, nil
}

// Ping checks database connectivity for readiness probes.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanComplaint(row pgx.Row) (domain.Complaint, error) {
	var c domain.Complaint
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.Title,
		&c.Description,
		&c.Category,
		&c.SeverityScore,
		&c.Latitude,
		&c.Longitude,
		&c.ImageRef,
		&c.Status,
		&c.CreatedAt,
	)
	return c, err
}
