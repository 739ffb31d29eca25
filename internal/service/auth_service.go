package service

import (
	"context"
	"strings"
	"time"

	"jeezy-monetization-be/internal/dto"
	"jeezy-monetization-be/internal/entity"
	"jeezy-monetization-be/internal/pkg/apperror"
	"jeezy-monetization-be/internal/pkg/logger"
	"jeezy-monetization-be/internal/repository/specification"
	"jeezy-monetization-be/internal/repository/unitofwork"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type IAuthService interface {
	Signup(ctx context.Context, req *dto.SignupRequest) (*dto.SignupResponse, error)
	Signin(ctx context.Context, req *dto.SigninRequest) (*dto.SigninResponse, error)
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type authService struct {
	cfg        AuthConfig
	uowFactory unitofwork.RepositoryFactory
	log        logger.ILogger
	now        Clock
}

func NewAuthService(cfg AuthConfig, uowFactory unitofwork.RepositoryFactory, log logger.ILogger, now Clock) IAuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &authService{
		cfg:        cfg,
		uowFactory: uowFactory,
		log:        log,
		now:        now,
	}
}

func (s *authService) Signup(ctx context.Context, req *dto.SignupRequest) (*dto.SignupResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	// 1. Check for existing user
	uow := s.uowFactory.NewUnitOfWork(ctx)
	existing, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, storageError(err)
	}
	if existing != nil {
		return nil, apperror.Conflict(apperror.CodeEmailTaken, "email already registered")
	}

	// 2. Hash password
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, apperror.CodeInternal, "failed to hash password", err)
	}
	hashStr := string(hash)

	// 3. User and empty wallet together
	now := s.now()
	user := &entity.User{
		Id:           uuid.New(),
		Email:        &email,
		PasswordHash: &hashStr,
		FullName:     strings.TrimSpace(req.FullName),
		Role:         entity.UserRoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = inTransaction(ctx, s.uowFactory, DefaultTxTimeout, func(ctx context.Context, uow unitofwork.UnitOfWork) error {
		if err := uow.UserRepository().Create(ctx, user); err != nil {
			if isUniqueViolation(err) {
				return apperror.Conflict(apperror.CodeEmailTaken, "email already registered")
			}
			return err
		}
		return uow.WalletRepository().EnsureExists(ctx, user.Id)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("AUTH", "User signed up", map[string]interface{}{"user_id": user.Id.String()})
	return &dto.SignupResponse{Id: user.Id, Email: email}, nil
}

func (s *authService) Signin(ctx context.Context, req *dto.SigninRequest) (*dto.SigninResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	// 1. Find user
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, storageError(err)
	}
	if user == nil || user.PasswordHash == nil {
		return nil, apperror.Unauthenticated(apperror.CodeInvalidCredentials, "invalid credentials")
	}

	// 2. Compare passwords
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperror.Unauthenticated(apperror.CodeInvalidCredentials, "invalid credentials")
	}
	if !user.IsActive {
		return nil, apperror.Forbidden("account is disabled")
	}

	// 3. Generate JWT
	expiresAt := s.now().Add(s.cfg.TokenTTL)
	claims := jwt.MapClaims{
		"sub":     user.Id.String(),
		"user_id": user.Id.String(),
		"email":   email,
		"role":    string(user.Role),
		"exp":     expiresAt.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, apperror.CodeInternal, "failed to sign token", err)
	}

	return &dto.SigninResponse{
		AccessToken: signed,
		ExpiresAt:   expiresAt,
		User: dto.UserBrief{
			Id:       user.Id,
			Email:    email,
			FullName: user.FullName,
			Role:     string(user.Role),
		},
	}, nil
}
