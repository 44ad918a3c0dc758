package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"marketplace/internal/models"
	"marketplace/internal/redisclient"
	"marketplace/internal/store"
	"marketplace/internal/util"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned on any login mismatch. Unknown
// email and wrong password are deliberately indistinguishable.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService handles registration, login and token validation
type AuthService struct {
	store      *store.Store
	redis      *redisclient.Client
	sessionTTL time.Duration
	logger     *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(store *store.Store, redis *redisclient.Client, sessionTTL time.Duration) *AuthService {
	return &AuthService{
		store:      store,
		redis:      redis,
		sessionTTL: sessionTTL,
		logger:     util.GetLogger(),
	}
}

// AuthRequest is the action-dispatched auth body
type AuthRequest struct {
	Action   string `json:"action" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name"`
}

// AuthResponse carries the user record and a fresh bearer token
type AuthResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Register creates a user and mints a session token. A duplicate email
// propagates as a plain error; the HTTP layer answers a generic 500.
func (s *AuthService) Register(ctx context.Context, req *AuthRequest) (*AuthResponse, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Register")
	defer span.End()

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}

	util.UsersRegisteredTotal.Inc()
	s.logger.Info("User registered", zap.Int64("user_id", user.ID))

	return &AuthResponse{User: user, Token: token}, nil
}

// Login authenticates credentials and mints a session token
func (s *AuthService) Login(ctx context.Context, req *AuthRequest) (*AuthResponse, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Login")
	defer span.End()

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		util.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		util.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}

	token, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}

	util.LoginsTotal.WithLabelValues("success").Inc()
	s.logger.Info("User logged in", zap.Int64("user_id", user.ID))

	return &AuthResponse{User: user, Token: token}, nil
}

// ValidateToken resolves a bearer token to its session
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*models.Session, error) {
	return s.redis.GetSession(ctx, token)
}

func (s *AuthService) startSession(ctx context.Context, user *models.User) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	sess := models.Session{UserID: user.ID, IsAdmin: user.IsAdmin}
	if err := s.redis.SaveSession(ctx, token, sess, s.sessionTTL); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}
	return token, nil
}

// newToken returns 32 random bytes as an opaque url-safe string.
func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
