package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/cardio-api/internal/model"
	"github.com/jwalitptl/cardio-api/internal/repository"
	"github.com/jwalitptl/cardio-api/internal/service/audit"
	"github.com/jwalitptl/cardio-api/pkg/auth"
	apperrors "github.com/jwalitptl/cardio-api/pkg/errors"
	"github.com/jwalitptl/cardio-api/pkg/metrics"
	"github.com/jwalitptl/cardio-api/pkg/security"
	"github.com/jwalitptl/cardio-api/pkg/validator"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionExpired     = errors.New("session expired or logged out")
)

type Service struct {
	users    repository.UserRepository
	hasher   security.PasswordHasher
	jwtSvc   auth.JWTService
	sessions SessionStore
	expiry   time.Duration
	validate validator.Validator
	metrics  *metrics.Metrics
	auditor  *audit.Service
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(users repository.UserRepository, hasher security.PasswordHasher, jwtSvc auth.JWTService,
	sessions SessionStore, expiry time.Duration, m *metrics.Metrics, auditor *audit.Service, logger zerolog.Logger) *Service {
	return &Service{
		users:    users,
		hasher:   hasher,
		jwtSvc:   jwtSvc,
		sessions: sessions,
		expiry:   expiry,
		validate: validator.New(),
		metrics:  m,
		auditor:  auditor,
		logger:   logger.With().Str("service", "auth").Logger(),
		now:      time.Now,
	}
}

// Login checks the credentials and opens a session referenced by the
// returned token.
func (s *Service) Login(ctx context.Context, username, password string) (*model.LoginResponse, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.LoginAttempts.WithLabelValues("rejected").Inc()
			return nil, apperrors.Unauthorized(ErrInvalidCredentials)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get user: %w", err))
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		s.metrics.LoginAttempts.WithLabelValues("rejected").Inc()
		s.logger.Info().Str("username", username).Msg("rejected login")
		return nil, apperrors.Unauthorized(ErrInvalidCredentials)
	}

	now := s.now()
	session := &model.Session{
		ID:          uuid.New(),
		UserID:      user.ID,
		Username:    user.Username,
		Role:        user.Role,
		ClinicianID: user.ClinicianID,
		IssuedAt:    now,
		ExpiresAt:   now.Add(s.expiry),
	}

	token, err := s.jwtSvc.GenerateAccessToken(session)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to save session: %w", err))
	}

	s.metrics.LoginAttempts.WithLabelValues("success").Inc()
	s.auditor.Log(ctx, user.ID, model.AuditActionLogin, model.AuditEntityUser, user.ID, nil)

	return &model.LoginResponse{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		Session:   session,
	}, nil
}

// Authenticate resolves a bearer token to its live session.
func (s *Service) Authenticate(ctx context.Context, token string) (*model.Session, error) {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return nil, apperrors.Unauthorized(err)
	}

	session, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, apperrors.Unauthorized(ErrSessionExpired)
		}
		return nil, apperrors.Internal(err)
	}
	if session.UserID != claims.UserID || !s.now().Before(session.ExpiresAt) {
		return nil, apperrors.Unauthorized(ErrSessionExpired)
	}
	return session, nil
}

func (s *Service) Logout(ctx context.Context, session *model.Session) error {
	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		return apperrors.Internal(err)
	}
	s.auditor.Log(ctx, session.UserID, model.AuditActionLogout, model.AuditEntityUser, session.UserID, nil)
	return nil
}

// CreateUser adds a login without a clinician profile, such as an
// administrator or receptionist.
func (s *Service) CreateUser(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	if req.Role == model.RoleClinician {
		return nil, apperrors.Validation("role", "clinician logins are created with the clinician profile")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Validation("password", err.Error())
	}

	user := &model.User{
		Username:     req.Username,
		PasswordHash: hash,
		Role:         req.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("user", fmt.Sprintf("username %q is taken", req.Username))
		}
		return nil, apperrors.Internal(err)
	}

	s.logger.Info().Str("username", user.Username).Str("role", string(user.Role)).Msg("user created")
	return user, nil
}
