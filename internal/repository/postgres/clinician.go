package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/cardio-api/internal/model"
	"github.com/jwalitptl/cardio-api/internal/repository"
)

type clinicianRepository struct {
	BaseRepository
}

func NewClinicianRepository(db *sqlx.DB) repository.ClinicianRepository {
	return &clinicianRepository{NewBaseRepository(db)}
}

func (r *clinicianRepository) CreateWithUser(ctx context.Context, clinician *model.Clinician, user *model.User) error {
	now := time.Now()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt, user.UpdatedAt = now, now

	clinician.ID = uuid.New()
	clinician.UserID = user.ID
	clinician.CreatedAt, clinician.UpdatedAt = now, now

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO users (id, username, password_hash, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			user.ID, user.Username, user.PasswordHash, user.Role, user.CreatedAt, user.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", mapError(err))
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO clinicians (id, name, specialty, email, user_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			clinician.ID, clinician.Name, clinician.Specialty, clinician.Email,
			clinician.UserID, clinician.CreatedAt, clinician.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create clinician: %w", mapError(err))
		}
		user.ClinicianID = &clinician.ID
		return nil
	})
}

func (r *clinicianRepository) Get(ctx context.Context, id uuid.UUID) (*model.Clinician, error) {
	query := `
		SELECT id, name, specialty, email, user_id, created_at, updated_at
		FROM clinicians
		WHERE id = $1
	`
	var clinician model.Clinician
	if err := r.db.GetContext(ctx, &clinician, query, id); err != nil {
		return nil, fmt.Errorf("failed to get clinician: %w", mapError(err))
	}
	return &clinician, nil
}

func (r *clinicianRepository) List(ctx context.Context) ([]*model.Clinician, error) {
	query := `
		SELECT id, name, specialty, email, user_id, created_at, updated_at
		FROM clinicians
		ORDER BY name ASC
	`
	var clinicians []*model.Clinician
	if err := r.db.SelectContext(ctx, &clinicians, query); err != nil {
		return nil, fmt.Errorf("failed to list clinicians: %w", err)
	}
	return clinicians, nil
}
