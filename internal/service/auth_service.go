package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"advisor-command-centre-be/internal/dto"
	"advisor-command-centre-be/internal/entity"
	"advisor-command-centre-be/internal/pkg/logger"
	"advisor-command-centre-be/internal/pkg/serverutils"
	"advisor-command-centre-be/internal/repository/unitofwork"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Me(ctx context.Context, userId uuid.UUID) (*dto.UserResponse, error)
	// EnsureUser returns the user with username, creating it with an
	// unusable password when absent. Used to seed the demo principal.
	EnsureUser(ctx context.Context, username string) (*entity.User, error)
}

type authService struct {
	uowFactory unitofwork.RepositoryFactory
	jwtSecret  string
	tokenTTL   time.Duration
	logger     logger.ILogger
}

func NewAuthService(uowFactory unitofwork.RepositoryFactory, jwtSecret string, tokenTTL time.Duration, log logger.ILogger) IAuthService {
	return &authService{
		uowFactory: uowFactory,
		jwtSecret:  jwtSecret,
		tokenTTL:   tokenTTL,
		logger:     log,
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, serverutils.NewBadRequest("Invalid registration data", err)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	existing, err := uow.UserRepository().FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if existing != nil {
		return nil, serverutils.NewConflict("Username already taken", ErrUsernameTaken)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entity.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         entity.UserRoleAdvisor,
	}
	if err := uow.UserRepository().Create(ctx, user); err != nil {
		// lost a race against a concurrent signup
		if again, findErr := uow.UserRepository().FindByUsername(ctx, req.Username); findErr == nil && again != nil {
			return nil, serverutils.NewConflict("Username already taken", ErrUsernameTaken)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("AuthService", "User registered", map[string]interface{}{"user_id": user.Id})
	return toUserResponse(user), nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, serverutils.NewBadRequest("Invalid login data", err)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, invalidCredentials()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, invalidCredentials()
	}

	token, err := serverutils.IssueToken(s.jwtSecret, user.Id, string(user.Role), s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &dto.LoginResponse{Token: token, User: toUserResponse(user)}, nil
}

func (s *authService) Me(ctx context.Context, userId uuid.UUID) (*dto.UserResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindByID(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, serverutils.NewNotFound("User not found")
	}
	return toUserResponse(user), nil
}

func (s *authService) EnsureUser(ctx context.Context, username string) (*entity.User, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user != nil {
		return user, nil
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	// bcrypt only looks at the first 72 bytes; 64 hex chars fit.
	hash, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(secret)), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user = &entity.User{Username: username, PasswordHash: string(hash), Role: entity.UserRoleAdvisor}
	if err := uow.UserRepository().Create(ctx, user); err != nil {
		if again, findErr := uow.UserRepository().FindByUsername(ctx, username); findErr == nil && again != nil {
			return again, nil
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("AuthService", "Seeded user", map[string]interface{}{"username": username, "user_id": user.Id})
	return user, nil
}

func invalidCredentials() error {
	return serverutils.NewAppError(fiber.StatusUnauthorized, "Invalid credentials", ErrInvalidCredentials)
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	return &dto.UserResponse{
		Id:        u.Id,
		Username:  u.Username,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}
