package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/bus-tracking/internal/auth"
	"github.com/spec-kit/bus-tracking/internal/config"
	"github.com/spec-kit/bus-tracking/internal/domain"
	"github.com/spec-kit/bus-tracking/internal/events"
	"github.com/spec-kit/bus-tracking/internal/repository"
	"github.com/spec-kit/bus-tracking/internal/validation"
	apperrors "github.com/spec-kit/bus-tracking/pkg/util"
)

// AuthResult is returned by the flows that issue a token.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      domain.Profile
}

// ProvisionInput describes an administratively created account.
type ProvisionInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// AuthService coordinates registration, login and provisioning flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
	dummyHash  string
}

// AuthDependencies encapsulates collaborators for auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	// TokenOptions are passed to the token manager, mainly to pin the clock in tests.
	TokenOptions []auth.TokenOption
}

// NewAuthService builds the service. It fails when no signing secret is configured.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) (*AuthService, error) {
	opts := append([]auth.TokenOption{auth.WithIssuer(cfg.Issuer)}, deps.TokenOptions...)
	tokenMgr, err := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL(), opts...)
	if err != nil {
		return nil, err
	}

	dummyHash, err := auth.HashPassword(uuid.NewString(), cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AuthService{
		users:      deps.UserRepo,
		tokenMgr:   tokenMgr,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		bcryptCost: cfg.BcryptCost,
		dummyHash:  dummyHash,
	}, nil
}

// Register creates a new student account and signs it in.
func (s *AuthService) Register(ctx context.Context, in validation.RegisterInput) (*AuthResult, error) {
	if fields := in.Check(); fields != nil {
		return nil, apperrors.NewValidationError(fields)
	}

	user, err := s.createUser(ctx, in.Name, in.Email, in.Password, domain.RoleStudent)
	if err != nil {
		return nil, err
	}

	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{Type: events.EventUserRegistered, SubjectID: user.ID, Role: user.Role})
	return result, nil
}

// Login authenticates a student or driver. Unknown email and wrong password
// produce the same error.
func (s *AuthService) Login(ctx context.Context, in validation.LoginInput) (*AuthResult, error) {
	if fields := in.Check(); fields != nil {
		return nil, apperrors.NewValidationError(fields)
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewInternalError(err)
		}
		_ = auth.ComparePassword(s.dummyHash, in.Password)
		s.loginFailed(ctx, in.Email, "unknown_email")
		return nil, apperrors.NewInvalidCredentials()
	}
	if err := auth.ComparePassword(user.PasswordHash, in.Password); err != nil {
		s.loginFailed(ctx, in.Email, "wrong_password")
		return nil, apperrors.NewInvalidCredentials()
	}

	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{Type: events.EventUserLoggedIn, SubjectID: user.ID, Role: user.Role})
	return result, nil
}

// Me returns the profile of an already verified subject.
func (s *AuthService) Me(ctx context.Context, subjectID string) (*domain.Profile, error) {
	user, err := s.users.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("User")
		}
		return nil, apperrors.NewInternalError(err)
	}
	profile := user.Profile()
	return &profile, nil
}

// Provision creates an account with an explicit role. It backs the
// administrative tooling and is never reachable from self-service sign-up.
func (s *AuthService) Provision(ctx context.Context, in ProvisionInput) (*domain.Profile, error) {
	form := validation.RegisterInput{Name: in.Name, Email: in.Email, Password: in.Password, ConfirmPassword: in.Password}
	fields := form.Check()
	if !in.Role.Valid() {
		if fields == nil {
			fields = validation.FieldErrors{}
		}
		fields["role"] = "Role must be student or driver"
	}
	if fields != nil {
		return nil, apperrors.NewValidationError(fields)
	}

	user, err := s.createUser(ctx, form.Name, form.Email, form.Password, in.Role)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{Type: events.EventUserProvisioned, SubjectID: user.ID, Role: user.Role})
	profile := user.Profile()
	return &profile, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) createUser(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewDuplicateEmail()
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewInternalError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewDuplicateEmail()
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, claims, err := s.tokenMgr.Issue(auth.Claims{SubjectID: user.ID, Role: user.Role})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthResult{Token: token, ExpiresAt: claims.ExpiresAt, User: user.Profile()}, nil
}

func (s *AuthService) loginFailed(ctx context.Context, email, reason string) {
	s.publish(ctx, events.Event{
		Type:    events.EventLoginFailed,
		Payload: events.LoginFailedPayload{Email: email, Reason: reason},
	})
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now().UTC()
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("auth event handler failed", zap.String("type", string(event.Type)), zap.Error(err))
	}
}
