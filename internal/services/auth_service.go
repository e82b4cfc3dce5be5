package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Dias221467/Saviya_Learn/internal/apperr"
	"github.com/Dias221467/Saviya_Learn/internal/authz"
	"github.com/Dias221467/Saviya_Learn/internal/models"
	"github.com/Dias221467/Saviya_Learn/internal/repository"
	"github.com/Dias221467/Saviya_Learn/pkg/email"
	jwtutil "github.com/Dias221467/Saviya_Learn/pkg/jwt"
	"github.com/Dias221467/Saviya_Learn/pkg/validation"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const (
	verificationTokenTTL = 24 * time.Hour
	resetTokenTTL        = time.Hour
)

type AccountStore interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UpdateUser(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.User, error)
}

type TokenStore interface {
	Create(ctx context.Context, t *models.Token) error
	Consume(ctx context.Context, token, purpose string) (*models.Token, error)
	DeleteForUser(ctx context.Context, userID primitive.ObjectID, purpose string) error
	Delete(ctx context.Context, token, purpose string) error
}

type AuthConfig struct {
	JWTSecret          string
	TokenExpiry        time.Duration
	RefreshTokenExpiry time.Duration
	FrontendURL        string
}

// AuthService handles signup, login and the token flows around them.
type AuthService struct {
	users    AccountStore
	tokens   TokenStore
	mailer   email.Mailer
	activity ActivityLogger
	cfg      AuthConfig
}

func NewAuthService(users AccountStore, tokens TokenStore, mailer email.Mailer, activity ActivityLogger, cfg AuthConfig) *AuthService {
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	return &AuthService{users: users, tokens: tokens, mailer: mailer, activity: activity, cfg: cfg}
}

type SignupInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required,max=100"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResult struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         *models.User `json:"user"`
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", apperr.Internal(err)
	}
	return string(hashed), nil
}

func (s *AuthService) issueToken(ctx context.Context, userID primitive.ObjectID, purpose string, ttl time.Duration) (string, error) {
	t := &models.Token{
		Token:     uuid.NewString(),
		UserID:    userID,
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := s.tokens.Create(ctx, t); err != nil {
		return "", err
	}
	return t.Token, nil
}

func (s *AuthService) sendQuietly(ctx context.Context, build func() (email.Message, error), kind string) {
	msg, err := build()
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		logrus.WithError(err).WithField("email", kind).Warn("Failed to send account email")
	}
}

// Signup creates an unverified account and mails a verification link.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	if _, err := s.users.GetUserByEmail(ctx, in.Email); err == nil {
		return nil, apperr.Conflict("Email already in use.")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Internal(err)
	}

	hashed, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user, err := s.users.CreateUser(ctx, &models.User{
		Email:          in.Email,
		HashedPassword: hashed,
		Profile:        models.Profile{Name: in.Name},
		Role:           authz.RoleUser,
		Status:         models.UserStatusActive,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("Email already in use.")
		}
		return nil, apperr.Internal(err)
	}

	token, err := s.issueToken(ctx, user.ID, models.TokenEmailVerification, verificationTokenTTL)
	if err != nil {
		logrus.WithError(err).WithField("userID", user.ID.Hex()).Warn("Failed to create verification token")
	} else {
		link := s.cfg.FrontendURL + "/verify-email?token=" + token
		s.sendQuietly(ctx, func() (email.Message, error) { return email.VerificationMessage(user.Email, link) }, "verification")
	}
	s.sendQuietly(ctx, func() (email.Message, error) { return email.WelcomeMessage(user.Email, user.Profile.Name) }, "welcome")

	s.activity.Log(ctx, user.ID, models.ActionSignup, nil)
	logrus.WithField("userID", user.ID.Hex()).Info("User registered")
	return user, nil
}

func (s *AuthService) tokensFor(ctx context.Context, user *models.User) (*AuthResult, error) {
	access, err := jwtutil.GenerateToken(user.ID.Hex(), user.Email, user.Role, s.cfg.JWTSecret, s.cfg.TokenExpiry)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	refresh, err := s.issueToken(ctx, user.ID, models.TokenRefresh, s.cfg.RefreshTokenExpiry)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &AuthResult{AccessToken: access, RefreshToken: refresh, User: user}, nil
}

func accountBlocked(user *models.User) error {
	switch user.Status {
	case models.UserStatusBanned:
		return apperr.Forbidden("Account is banned.")
	case models.UserStatusSuspended:
		return apperr.Forbidden("Account is suspended.")
	}
	return nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized("Invalid credentials.")
		}
		return nil, apperr.Internal(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(in.Password)); err != nil {
		logrus.WithField("userID", user.ID.Hex()).Warn("Login failed: wrong password")
		return nil, apperr.Unauthorized("Invalid credentials.")
	}
	if err := accountBlocked(user); err != nil {
		return nil, err
	}

	result, err := s.tokensFor(ctx, user)
	if err != nil {
		return nil, err
	}
	s.activity.Log(ctx, user.ID, models.ActionLogin, nil)
	return result, nil
}

// Refresh swaps a refresh token for a new access and refresh pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, apperr.Unauthorized("Refresh token required.")
	}
	t, err := s.tokens.Consume(ctx, refreshToken, models.TokenRefresh)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized("Invalid or expired refresh token.")
		}
		return nil, apperr.Internal(err)
	}
	user, err := s.users.GetUserByID(ctx, t.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized("Invalid or expired refresh token.")
		}
		return nil, apperr.Internal(err)
	}
	if err := accountBlocked(user); err != nil {
		return nil, err
	}
	return s.tokensFor(ctx, user)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.tokens.Delete(ctx, refreshToken, models.TokenRefresh); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return apperr.Validation("Token is required.")
	}
	t, err := s.tokens.Consume(ctx, token, models.TokenEmailVerification)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.Validation("Invalid or expired verification token.")
		}
		return apperr.Internal(err)
	}
	if _, err := s.users.UpdateUser(ctx, t.UserID, bson.M{"verified": true}); err != nil {
		return storeErr(err, "User not found.")
	}
	logrus.WithField("userID", t.UserID.Hex()).Info("Email verified")
	return nil
}

func (s *AuthService) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	emailAddr = normalizeEmail(emailAddr)
	if err := validation.Var("email", emailAddr, "required,email"); err != nil {
		return err
	}
	user, err := s.users.GetUserByEmail(ctx, emailAddr)
	if err != nil {
		return storeErr(err, "No account with that email.")
	}

	token, err := s.issueToken(ctx, user.ID, models.TokenPasswordReset, resetTokenTTL)
	if err != nil {
		return apperr.Internal(err)
	}
	link := s.cfg.FrontendURL + "/reset-password?token=" + token
	s.sendQuietly(ctx, func() (email.Message, error) { return email.PasswordResetMessage(user.Email, link) }, "password_reset")
	return nil
}

type ResetPasswordInput struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// ResetPassword sets a new password and signs the user out everywhere.
func (s *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	t, err := s.tokens.Consume(ctx, in.Token, models.TokenPasswordReset)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.Validation("Invalid or expired reset token.")
		}
		return apperr.Internal(err)
	}
	hashed, err := hashPassword(in.Password)
	if err != nil {
		return err
	}
	if _, err := s.users.UpdateUser(ctx, t.UserID, bson.M{"password_hash": hashed}); err != nil {
		return storeErr(err, "User not found.")
	}
	if err := s.tokens.DeleteForUser(ctx, t.UserID, models.TokenRefresh); err != nil {
		logrus.WithError(err).Warn("Failed to revoke refresh tokens after password reset")
	}
	s.activity.Log(ctx, t.UserID, models.ActionPasswordReset, nil)
	return nil
}
