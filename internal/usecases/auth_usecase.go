package usecases

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"p2p-ramp.backend/internal/domain/entities"
	domainerrors "p2p-ramp.backend/internal/domain/errors"
	"p2p-ramp.backend/internal/domain/repositories"
	"p2p-ramp.backend/pkg/crypto"
	"p2p-ramp.backend/pkg/jwt"
	"p2p-ramp.backend/pkg/logger"
	"p2p-ramp.backend/pkg/utils"
)

// AuthUsecase handles authentication business logic
type AuthUsecase struct {
	userRepo   repositories.UserRepository
	traderRepo repositories.TraderRepository
	jwtService *jwt.JWTService
	now        func() time.Time
}

// NewAuthUsecase creates a new auth usecase
func NewAuthUsecase(
	userRepo repositories.UserRepository,
	traderRepo repositories.TraderRepository,
	jwtService *jwt.JWTService,
) *AuthUsecase {
	return &AuthUsecase{
		userRepo:   userRepo,
		traderRepo: traderRepo,
		jwtService: jwtService,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a plain user account and signs it in.
func (u *AuthUsecase) Register(ctx context.Context, input *entities.RegisterInput) (*entities.AuthResponse, error) {
	user, err := u.ProvisionUser(ctx, input.Email, input.Password, entities.UserRoleUser)
	if err != nil {
		return nil, err
	}
	return u.issue(user)
}

// Login authenticates a user and returns a session token. Blocked users
// may still sign in; their mutating calls fail later.
func (u *AuthUsecase) Login(ctx context.Context, input *entities.LoginInput) (*entities.AuthResponse, error) {
	user, err := u.userRepo.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.InvalidCredentials("invalid email or password")
		}
		return nil, err
	}

	if !crypto.CheckPassword(input.Password, user.PasswordHash) {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	return u.issue(user)
}

// Me returns the caller and its trader profile when one exists.
func (u *AuthUsecase) Me(ctx context.Context, userID uuid.UUID) (*entities.Me, error) {
	user, err := u.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, err
	}

	me := &entities.Me{User: user}
	trader, err := u.traderRepo.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		me.Trader = trader
	case !errors.Is(err, domainerrors.ErrNotFound):
		return nil, err
	}
	return me, nil
}

// CreateUser provisions an account with any role. Admin only.
func (u *AuthUsecase) CreateUser(ctx context.Context, actor entities.Actor, input *entities.CreateUserInput) (*entities.User, error) {
	if err := authorize(actor, entities.CapManageAccounts); err != nil {
		return nil, err
	}
	role := input.Role
	if role == "" {
		role = entities.UserRoleUser
	}
	user, err := u.ProvisionUser(ctx, input.Email, input.Password, role)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "User provisioned by admin",
		zap.String("target_user_id", user.ID.String()),
		zap.String("role", string(role)),
	)
	return user, nil
}

// ProvisionUser validates and stores a new account. It carries no caller
// check and backs registration, admin provisioning and the CLI.
func (u *AuthUsecase) ProvisionUser(ctx context.Context, email, password string, role entities.UserRole) (*entities.User, error) {
	email = normalizeEmail(email)
	if !strings.Contains(email, "@") {
		return nil, domainerrors.Validation("email is invalid")
	}
	if !role.Valid() {
		return nil, domainerrors.Validation("role must be one of user, trader, admin")
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		if errors.Is(err, crypto.ErrWeakPassword) {
			return nil, domainerrors.Validation(err.Error())
		}
		return nil, err
	}

	now := u.now()
	user := &entities.User{
		ID:           utils.GenerateUUIDv7(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("email already registered")
		}
		return nil, err
	}
	return user, nil
}

// ListUsers pages through every account. Admin only.
func (u *AuthUsecase) ListUsers(ctx context.Context, actor entities.Actor, p utils.PaginationParams) (utils.Page[*entities.User], error) {
	if err := authorize(actor, entities.CapViewAll); err != nil {
		return utils.Page[*entities.User]{}, err
	}
	users, total, err := u.userRepo.List(ctx, p)
	if err != nil {
		return utils.Page[*entities.User]{}, err
	}
	return utils.NewPage(users, total, p), nil
}

func (u *AuthUsecase) issue(user *entities.User) (*entities.AuthResponse, error) {
	token, err := u.jwtService.Issue(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &entities.AuthResponse{Token: token.Token, ExpiresAt: token.ExpiresAt, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
