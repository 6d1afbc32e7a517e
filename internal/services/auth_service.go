package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

var (
	ErrUserExists      = errors.New("a user with this email or phone already exists")
	ErrUserNotFound    = errors.New("no user matches this identifier")
	ErrInvalidOTP      = errors.New("invalid or already used code")
	ErrExpiredOTP      = errors.New("code has expired, request a new one")
	ErrOTPNotVerified  = errors.New("verify the code before resetting the password")
	ErrAccountDisabled = errors.New("account is disabled")
)

// AuthService handles registration, login, and the OTP password reset flow.
// OTP delivery happens out of process: codes are published to the broker and
// a worker sends them.
type AuthService struct {
	storage    *storage.SQLiteRepository
	jwt        *auth.JWTManager
	amqpClient *amqp.Client
}

func NewAuthService(storage *storage.SQLiteRepository, jwt *auth.JWTManager, amqpClient *amqp.Client) *AuthService {
	return &AuthService{
		storage:    storage,
		jwt:        jwt,
		amqpClient: amqpClient,
	}
}

// RegisterInput is the material for a new account. At least one of Email or
// Phone must be set; either works later as the login identifier.
type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

func (in RegisterInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return &core.ValidationError{Field: "name", Message: "name is required"}
	}
	if in.Email == "" && in.Phone == "" {
		return &core.ValidationError{Field: "email", Message: "email or phone is required"}
	}
	return nil
}

// Register creates a new account and returns a session token for it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*core.User, string, error) {
	if err := in.validate(); err != nil {
		return nil, "", err
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		return nil, "", err
	}

	for _, identifier := range []string{in.Email, in.Phone} {
		if identifier == "" {
			continue
		}
		if _, err := s.storage.GetUserByIdentifier(ctx, identifier); err == nil {
			return nil, "", ErrUserExists
		} else if !errors.Is(err, storage.ErrNotFound) {
			return nil, "", fmt.Errorf("check existing user: %w", err)
		}
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, "", err
	}

	user := &core.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.storage.CreateUser(ctx, user); err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.jwt.Generate(user)
	if err != nil {
		return nil, "", err
	}

	slog.InfoContext(ctx, "User registered", "user_id", user.ID)
	return user, token, nil
}

// Login authenticates by email or phone plus password and returns a session
// token.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*core.User, string, error) {
	user, err := s.storage.GetUserByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", auth.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("look up user: %w", err)
	}
	if !user.IsActive {
		return nil, "", ErrAccountDisabled
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, "", err
	}

	token, err := s.jwt.Generate(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// RequestOTP generates a reset code for the identified user and queues it
// for delivery. The caller learns nothing beyond success, so the endpoint
// cannot be used to probe which identifiers exist.
func (s *AuthService) RequestOTP(ctx context.Context, identifier string) error {
	user, err := s.storage.GetUserByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			slog.WarnContext(ctx, "OTP requested for unknown identifier")
			return nil
		}
		return fmt.Errorf("look up user: %w", err)
	}

	code, err := auth.GenerateOTPCode()
	if err != nil {
		return err
	}
	if _, err := s.storage.CreateOTP(ctx, user.ID, code); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping OTP delivery", "user_id", user.ID)
		return nil
	}
	msg := amqp.NewOTPMessage(user.ID, user.Name, user.Email, user.Phone, code)
	if err := s.amqpClient.PublishOTP(ctx, msg); err != nil {
		// The code is stored; delivery can be retried with a new request.
		slog.ErrorContext(ctx, "Failed to publish OTP message", "user_id", user.ID, "error", err)
	}
	return nil
}

// VerifyOTP checks a submitted code against the latest pending one for the
// identified user and marks it verified.
func (s *AuthService) VerifyOTP(ctx context.Context, identifier, code string) error {
	user, err := s.storage.GetUserByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrInvalidOTP
		}
		return fmt.Errorf("look up user: %w", err)
	}

	otp, err := s.storage.LatestPendingOTP(ctx, user.ID, code)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrInvalidOTP
		}
		return fmt.Errorf("look up otp: %w", err)
	}
	if otp.Expired(time.Now().UTC()) {
		return ErrExpiredOTP
	}

	if err := s.storage.MarkOTPVerified(ctx, otp.ID); err != nil {
		return err
	}
	slog.InfoContext(ctx, "OTP verified", "user_id", user.ID)
	return nil
}

// ResetPassword sets a new password for a user who has completed OTP
// verification.
func (s *AuthService) ResetPassword(ctx context.Context, identifier, newPassword string) error {
	if err := auth.ValidatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.storage.GetUserByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("look up user: %w", err)
	}

	verified, err := s.storage.HasVerifiedOTP(ctx, user.ID)
	if err != nil {
		return err
	}
	if !verified {
		return ErrOTPNotVerified
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.storage.SetPassword(ctx, user.ID, hash); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Password reset", "user_id", user.ID)
	return nil
}

// UserFromClaims loads the full user record behind a validated token.
func (s *AuthService) UserFromClaims(ctx context.Context, claims *auth.Claims) (*core.User, error) {
	return s.storage.GetUserByID(ctx, claims.UserID)
}
