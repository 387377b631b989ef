package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/cardio-api/internal/clinical"
	"github.com/jwalitptl/cardio-api/internal/model"
	"github.com/jwalitptl/cardio-api/internal/repository"
	"github.com/jwalitptl/cardio-api/internal/service/audit"
	apperrors "github.com/jwalitptl/cardio-api/pkg/errors"
	"github.com/jwalitptl/cardio-api/pkg/validator"
)

type Service struct {
	repo     repository.PatientRepository
	region   string
	validate validator.Validator
	auditor  *audit.Service
	logger   zerolog.Logger
	now      func() time.Time
}

// NewService builds the patient registry. region is the ISO country code
// used to read phone numbers written without a country prefix.
func NewService(repo repository.PatientRepository, region string, auditor *audit.Service, logger zerolog.Logger) *Service {
	if region == "" {
		region = "US"
	}
	return &Service{
		repo:     repo,
		region:   strings.ToUpper(region),
		validate: validator.New(),
		auditor:  auditor,
		logger:   logger.With().Str("service", "patient").Logger(),
		now:      time.Now,
	}
}

// Register stores a new patient. The returned warnings flag data that is
// accepted but looks inconsistent, such as an adult age on a pediatric record.
func (s *Service) Register(ctx context.Context, session *model.Session, req *model.CreatePatientRequest) (*model.Patient, []string, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, nil, err
	}

	patient := &model.Patient{
		Name:      strings.TrimSpace(req.Name),
		BirthDate: req.BirthDate,
		Pediatric: req.Pediatric,
		Contact:   req.Contact,
		Guardian:  optional(req.Guardian),
	}
	if req.Sex != "" {
		sex := clinical.Sex(req.Sex)
		patient.Sex = &sex
	}

	warnings, err := s.check(patient)
	if err != nil {
		return nil, nil, err
	}

	if err := s.repo.Create(ctx, patient); err != nil {
		return nil, nil, apperrors.Persistence("patient", "", err)
	}

	s.auditor.Log(ctx, session.UserID, model.AuditActionCreate, model.AuditEntityPatient, patient.ID, nil)
	return patient, warnings, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return patient, nil
}

func (s *Service) Update(ctx context.Context, session *model.Session, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, []string, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, nil, err
	}

	patient, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if req.Name != nil {
		patient.Name = strings.TrimSpace(*req.Name)
		if patient.Name == "" {
			return nil, nil, apperrors.Validation("name", "name is required")
		}
	}
	if req.BirthDate != nil {
		patient.BirthDate = *req.BirthDate
	}
	if req.Sex != nil {
		if *req.Sex == "" {
			patient.Sex = nil
		} else {
			sex := clinical.Sex(*req.Sex)
			patient.Sex = &sex
		}
	}
	if req.Pediatric != nil {
		patient.Pediatric = *req.Pediatric
	}
	if req.Contact != nil {
		patient.Contact = *req.Contact
	}
	if req.Guardian != nil {
		patient.Guardian = optional(*req.Guardian)
	}

	warnings, err := s.check(patient)
	if err != nil {
		return nil, nil, err
	}

	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, nil, apperrors.Persistence("patient", patient.ID.String(), err)
	}

	s.auditor.Log(ctx, session.UserID, model.AuditActionUpdate, model.AuditEntityPatient, patient.ID, nil)
	return patient, warnings, nil
}

// Search matches a name substring or an ID prefix; an empty query lists
// every patient. Results are ordered by name.
func (s *Service) Search(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	patients, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

// check enforces the registration invariants and normalises the contact
// number in place.
func (s *Service) check(p *model.Patient) ([]string, error) {
	if p.BirthDate.IsZero() {
		return nil, apperrors.Validation("birth_date", "birth_date is required")
	}
	if p.BirthDate.After(s.now()) {
		return nil, apperrors.Validation("birth_date", "birth_date cannot be in the future")
	}

	switch {
	case p.Pediatric && p.Guardian == nil:
		return nil, apperrors.Validation("guardian", "guardian is required for pediatric patients")
	case !p.Pediatric && p.Guardian != nil:
		return nil, apperrors.Validation("guardian", "guardian is only recorded for pediatric patients")
	}

	contact, err := s.normalizePhone(p.Contact)
	if err != nil {
		return nil, err
	}
	p.Contact = contact

	var warnings []string
	age := p.AgeAt(s.now())
	switch {
	case p.Pediatric && age >= model.PediatricAgeLimit:
		warnings = append(warnings, fmt.Sprintf("patient is %d years old but registered as pediatric", age))
	case !p.Pediatric && age < model.PediatricAgeLimit:
		warnings = append(warnings, fmt.Sprintf("patient is %d years old but registered as adult", age))
	}
	for _, w := range warnings {
		s.logger.Warn().Str("patient", p.Name).Msg(w)
	}
	return warnings, nil
}

func (s *Service) normalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", apperrors.Validation("contact", "contact is required")
	}
	num, err := phonenumbers.Parse(raw, s.region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		appErr := apperrors.Validation("contact", "contact must be a valid phone number")
		appErr.Value = raw
		return "", appErr
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
