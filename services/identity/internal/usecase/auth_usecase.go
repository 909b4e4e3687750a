package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"engage-predict/pkg/apperror"
	"engage-predict/pkg/event"
	"engage-predict/pkg/identity"
	"engage-predict/pkg/jwt"
	"engage-predict/pkg/logger"
	"engage-predict/services/identity/internal/entity"
	"engage-predict/services/identity/internal/repo/persistent"

	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is the most bcrypt will hash.
const maxPasswordBytes = 72

var errInvalidCredentials = apperror.Auth("Invalid email or password")

type AuthUseCase interface {
	Register(ctx context.Context, email, password, displayName string) (*entity.User, string, error)
	Login(ctx context.Context, email, password string) (*entity.User, string, error)
	GetUser(ctx context.Context, userID string) (*entity.User, error)
}

type authUseCase struct {
	userRepo   persistent.UserRepository
	jwtService *jwt.Service
	publisher  event.Publisher
	logger     *logger.Logger
	cost       int
}

func NewAuthUseCase(
	userRepo persistent.UserRepository,
	jwtService *jwt.Service,
	publisher event.Publisher,
	logger *logger.Logger,
) AuthUseCase {
	if publisher == nil {
		publisher = event.Noop{}
	}
	return &authUseCase{
		userRepo:   userRepo,
		jwtService: jwtService,
		publisher:  publisher,
		logger:     logger,
		cost:       bcrypt.DefaultCost,
	}
}

func (uc *authUseCase) Register(ctx context.Context, email, password, displayName string) (*entity.User, string, error) {
	email = normalizeEmail(email)
	if len(password) > maxPasswordBytes {
		return nil, "", apperror.Validation("Password must be at most 72 bytes")
	}

	_, err := uc.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, "", apperror.Conflict("Email already registered")
	}
	if !errors.Is(err, persistent.ErrUserNotFound) {
		return nil, "", err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), uc.cost)
	if err != nil {
		uc.logger.Error("Failed to hash password: %v", err)
		return nil, "", fmt.Errorf("failed to process registration: %w", err)
	}

	user := &entity.User{
		Email:       email,
		DisplayName: identity.DisplayName(strings.TrimSpace(displayName), email),
		Password:    string(hashedPassword),
		IsActive:    true,
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		uc.logger.Error("Failed to create user: %v", err)
		return nil, "", err
	}

	token, err := uc.issue(user)
	if err != nil {
		return nil, "", err
	}

	go func() {
		if err := uc.publisher.Publish(context.Background(), event.TypeUserRegistered, map[string]string{
			"uid":   user.ID,
			"email": user.Email,
		}); err != nil {
			uc.logger.Error("Failed to publish %s event: %v", event.TypeUserRegistered, err)
		}
	}()

	user.Password = ""
	return user, token, nil
}

func (uc *authUseCase) Login(ctx context.Context, email, password string) (*entity.User, string, error) {
	user, err := uc.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, persistent.ErrUserNotFound) {
			return nil, "", errInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", errInvalidCredentials
	}

	if !user.IsActive {
		return nil, "", apperror.Forbidden("Account is deactivated")
	}

	token, err := uc.issue(user)
	if err != nil {
		return nil, "", err
	}

	user.Password = ""
	return user, token, nil
}

func (uc *authUseCase) GetUser(ctx context.Context, userID string) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Password = ""
	return user, nil
}

func (uc *authUseCase) issue(user *entity.User) (string, error) {
	token, err := uc.jwtService.GenerateToken(user.ID, user.Email, user.DisplayName)
	if err != nil {
		uc.logger.Error("Failed to generate token: %v", err)
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
