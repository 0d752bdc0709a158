package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "github.com/phillip/community-platform-go/apperrors"
	models "github.com/phillip/community-platform-go/models"
	store "github.com/phillip/community-platform-go/store"
)

const (
	MinPasswordLen = 6
	MinUsernameLen = 3
	MaxUsernameLen = 30
)

var ErrInvalidCredential = apperrors.Unauthenticated("Invalid email or password")

// DuplicateIdentity is returned when field ("username" or "email") is taken.
func DuplicateIdentity(field string) error {
	return apperrors.Conflict(fmt.Sprintf("User with this %s already exists", field))
}

// UserRepository is the slice of the user store the credential service needs.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	IdentityTaken(ctx context.Context, username, email string, exclude primitive.ObjectID) (string, error)
}

// Service registers users and verifies their credentials.
type Service struct {
	users     UserRepository
	tokens    *TokenManager
	cost      int
	validate  *validator.Validate
	dummyHash string
	now       func() time.Time
}

func NewService(users UserRepository, tokens *TokenManager, cost int) (*Service, error) {
	// Compared against when the email is unknown so both failure paths pay
	// for one bcrypt comparison.
	dummy, err := HashPassword("not-a-real-password", cost)
	if err != nil {
		return nil, fmt.Errorf("auth: bcrypt cost %d: %w", cost, err)
	}
	return &Service{
		users:     users,
		tokens:    tokens,
		cost:      cost,
		validate:  validator.New(),
		dummyHash: dummy,
		now:       time.Now,
	}, nil
}

func (s *Service) Tokens() *TokenManager {
	return s.tokens
}

// NormalizeIdentity trims and lowercases username and email.
func NormalizeIdentity(username, email string) (string, string) {
	return strings.ToLower(strings.TrimSpace(username)), strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) ValidateEmail(email string) error {
	if email == "" || s.validate.Var(email, "email") != nil {
		return apperrors.Validation("Please provide a valid email address")
	}
	return nil
}

func ValidateUsername(username string) error {
	if n := len([]rune(username)); n < MinUsernameLen || n > MaxUsernameLen {
		return apperrors.Validation("Username must be between 3 and 30 characters")
	}
	return nil
}

func ValidatePassword(pw string) error {
	if len(pw) < MinPasswordLen {
		return apperrors.Validation("Password must be at least 6 characters long")
	}
	return nil
}

// Register creates a user and issues a token for it.
func (s *Service) Register(ctx context.Context, username, email, password string) (*models.User, string, error) {
	username, email = NormalizeIdentity(username, email)
	if username == "" || email == "" || password == "" {
		return nil, "", apperrors.Validation("Please provide username, email, and password")
	}
	if err := s.ValidateEmail(email); err != nil {
		return nil, "", err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, "", err
	}
	if err := ValidateUsername(username); err != nil {
		return nil, "", err
	}

	field, err := s.users.IdentityTaken(ctx, username, email, primitive.NilObjectID)
	if err != nil {
		return nil, "", fmt.Errorf("check identity: %w", err)
	}
	if field != "" {
		return nil, "", DuplicateIdentity(field)
	}

	hash, err := HashPassword(password, s.cost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           primitive.NewObjectID(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		DateJoined:   s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		var dup *store.DuplicateError
		if errors.As(err, &dup) {
			return nil, "", DuplicateIdentity(dup.Field)
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

// Verify checks an email/password pair. Unknown email and wrong password
// return the same ErrInvalidCredential.
func (s *Service) Verify(ctx context.Context, email, password string) (*models.User, error) {
	_, email = NormalizeIdentity("", email)
	if email == "" || password == "" {
		return nil, apperrors.Validation("Please provide email and password")
	}
	if err := s.ValidateEmail(email); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		CheckPassword(s.dummyHash, password)
		return nil, ErrInvalidCredential
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredential
	}
	return user, nil
}

// Login verifies the credential and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.Verify(ctx, email, password)
	if err != nil {
		return nil, "", err
	}
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}
