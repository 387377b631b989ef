package clinician

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/cardio-api/internal/model"
	"github.com/jwalitptl/cardio-api/internal/repository"
	"github.com/jwalitptl/cardio-api/internal/service/audit"
	apperrors "github.com/jwalitptl/cardio-api/pkg/errors"
	"github.com/jwalitptl/cardio-api/pkg/security"
	"github.com/jwalitptl/cardio-api/pkg/validator"
)

type Service struct {
	repo     repository.ClinicianRepository
	hasher   security.PasswordHasher
	validate validator.Validator
	auditor  *audit.Service
	logger   zerolog.Logger
}

func NewService(repo repository.ClinicianRepository, hasher security.PasswordHasher, auditor *audit.Service, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		hasher:   hasher,
		validate: validator.New(),
		auditor:  auditor,
		logger:   logger.With().Str("service", "clinician").Logger(),
	}
}

// Create registers a clinician together with the login used to sign
// consultations.
func (s *Service) Create(ctx context.Context, session *model.Session, req *model.CreateClinicianRequest) (*model.Clinician, error) {
	if !session.HasRole(model.RoleAdmin) {
		return nil, apperrors.Forbidden("only administrators can register clinicians")
	}
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Validation("password", err.Error())
	}

	clinician := &model.Clinician{
		Name:      req.Name,
		Specialty: req.Specialty,
		Email:     req.Email,
	}
	user := &model.User{
		Username:     req.Username,
		PasswordHash: hash,
		Role:         model.RoleClinician,
	}
	if err := s.repo.CreateWithUser(ctx, clinician, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("clinician", "username or email already registered")
		}
		return nil, apperrors.Persistence("clinician", "", err)
	}

	s.auditor.Log(ctx, session.UserID, model.AuditActionCreate, model.AuditEntityClinician, clinician.ID, &audit.LogOptions{
		Metadata: map[string]string{"username": user.Username},
	})
	s.logger.Info().Str("clinician_id", clinician.ID.String()).Msg("clinician registered")
	return clinician, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Clinician, error) {
	clinician, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("clinician", err)
		}
		return nil, fmt.Errorf("failed to get clinician: %w", err)
	}
	return clinician, nil
}

func (s *Service) List(ctx context.Context) ([]*model.Clinician, error) {
	clinicians, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clinicians: %w", err)
	}
	return clinicians, nil
}
