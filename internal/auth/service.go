package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/retaildesk/retaildesk-backend/internal/users"
	pkgauth "github.com/retaildesk/retaildesk-backend/pkg/auth"
	"github.com/retaildesk/retaildesk-backend/pkg/config"
	"github.com/retaildesk/retaildesk-backend/pkg/db"
	"github.com/retaildesk/retaildesk-backend/pkg/db/models"
	"github.com/retaildesk/retaildesk-backend/pkg/enums"
	pkgerrors "github.com/retaildesk/retaildesk-backend/pkg/errors"
	"github.com/retaildesk/retaildesk-backend/pkg/logger"
	"github.com/retaildesk/retaildesk-backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service implements account authentication and the password reset flow.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	ForgotPassword(ctx context.Context, req ForgotPasswordRequest) (*ForgotPasswordResponse, error)
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
	Profile(ctx context.Context, userID int64) (*users.UserDTO, error)
}

type service struct {
	tx          txRunner
	usersRepo   users.Repository
	tokensRepo  ResetTokenRepository
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	frontendURL string
	logg        *logger.Logger
	now         func() time.Time
}

// NewService wires the auth service. The frontend URL is used to build the
// password reset link embedded in the forgot-password response.
func NewService(
	tx txRunner,
	usersRepo users.Repository,
	tokensRepo ResetTokenRepository,
	jwtCfg config.JWTConfig,
	passwordCfg config.PasswordConfig,
	frontendURL string,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tokensRepo == nil {
		return nil, fmt.Errorf("reset token repository required")
	}
	if jwtCfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret required")
	}
	return &service{
		tx:          tx,
		usersRepo:   usersRepo,
		tokensRepo:  tokensRepo,
		jwtCfg:      jwtCfg,
		passwordCfg: passwordCfg,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logg:        logg,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)

	user, err := s.usersRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	}

	ok, err := security.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	}

	now := s.now()
	if err := s.usersRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLoginAt = &now

	token, err := pkgauth.MintAccessToken(s.jwtCfg, now, pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"user_id": user.ID, "role": user.Role.String()})
		s.logg.Info(ctx, "auth.login")
	}

	return &AuthResponse{Token: token, User: users.FromModel(user)}, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)

	role := enums.UserRoleSeller
	if req.Role != "" {
		parsed, err := enums.ParseUserRole(req.Role)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
		}
		role = parsed
	}

	existing, err := s.usersRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.usersRepo.Create(ctx, user); err != nil {
		// a concurrent registration can still race past the pre-check
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, err
	}

	token, err := pkgauth.MintAccessToken(s.jwtCfg, s.now(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"user_id": user.ID, "role": user.Role.String()})
		s.logg.Info(ctx, "auth.register")
	}

	return &AuthResponse{Token: token, User: users.FromModel(user)}, nil
}

// ForgotPassword always answers with the same message so callers cannot probe
// which emails have accounts. The reset link rides along only on a hit.
func (s *service) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) (*ForgotPasswordResponse, error) {
	response := &ForgotPasswordResponse{
		Message: "if the account exists, a reset link has been issued",
	}

	user, err := s.usersRepo.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return response, nil
	}

	token, err := security.GenerateResetToken()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate reset token")
	}

	record := &models.PasswordResetToken{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: s.now().Add(s.passwordCfg.ResetTokenTTL),
	}
	if err := s.tokensRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	if s.logg != nil {
		ctx = s.logg.WithField(ctx, "user_id", user.ID)
		s.logg.Info(ctx, "auth.reset_token_issued")
	}

	response.ResetLink = fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, token)
	return response, nil
}

// ResetPassword consumes the token and rotates the password in one transaction.
func (s *service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		tokens := s.tokensRepo.WithTx(tx)
		record, err := tokens.FindActive(ctx, req.Token, s.now())
		if err != nil {
			return err
		}
		if record == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid or expired reset token")
		}
		if err := s.usersRepo.WithTx(tx).UpdatePassword(ctx, record.UserID, hash); err != nil {
			return err
		}
		return tokens.MarkUsed(ctx, record.ID)
	})
	if err != nil {
		return err
	}

	if s.logg != nil {
		s.logg.Info(ctx, "auth.password_reset")
	}
	return nil
}

func (s *service) Profile(ctx context.Context, userID int64) (*users.UserDTO, error) {
	user, err := s.usersRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	dto := users.FromModel(user)
	return &dto, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
