package businessflow

import (
	"context"
	"fmt"
	"log"

	"github.com/opendata-pt/indicator-hub/app/dto"
	"github.com/opendata-pt/indicator-hub/app/services"
	"github.com/opendata-pt/indicator-hub/models"
	"github.com/opendata-pt/indicator-hub/repository"
	"golang.org/x/crypto/bcrypt"
)

// AuthFlow defines the interface for account and authentication workflows
type AuthFlow interface {
	CreateUser(ctx context.Context, req *dto.CreateUserRequest, metadata *ClientMetadata) (*dto.AuthUserDTO, error)
	Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error)
	GetUser(ctx context.Context, userID uint) (*dto.AuthUserDTO, error)
}

// AuthFlowImpl implements the account and authentication workflows
type AuthFlowImpl struct {
	userRepo     repository.UserRepository
	tokenService services.TokenService
	tokenTTLSecs int
}

// NewAuthFlow creates a new authentication flow
func NewAuthFlow(userRepo repository.UserRepository, tokenService services.TokenService, tokenTTLSecs int) AuthFlow {
	return &AuthFlowImpl{
		userRepo:     userRepo,
		tokenService: tokenService,
		tokenTTLSecs: tokenTTLSecs,
	}
}

// CreateUser registers a new API account with a bcrypt-hashed password
func (f *AuthFlowImpl) CreateUser(ctx context.Context, req *dto.CreateUserRequest, metadata *ClientMetadata) (*dto.AuthUserDTO, error) {
	existing, err := f.userRepo.ByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
	}
	if err := f.userRepo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Printf("user created: id=%d email=%s ip=%s", user.ID, user.Email, metadata.IPAddress)

	result := ToAuthUserDTO(*user)
	return &result, nil
}

// Login authenticates an account and issues a bearer token
func (f *AuthFlowImpl) Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error) {
	user, err := f.userRepo.ByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrIncorrectPassword
	}

	token, err := f.tokenService.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	log.Printf("user logged in: id=%d ip=%s", user.ID, metadata.IPAddress)

	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   f.tokenTTLSecs,
		User:        ToAuthUserDTO(*user),
	}, nil
}

// GetUser fetches a single account by id
func (f *AuthFlowImpl) GetUser(ctx context.Context, userID uint) (*dto.AuthUserDTO, error) {
	user, err := f.userRepo.ByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	result := ToAuthUserDTO(*user)
	return &result, nil
}
