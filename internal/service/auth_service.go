package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dom/account-market/internal/config"
	"github.com/dom/account-market/internal/domain"
	"github.com/dom/account-market/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidUserInput   = errors.New("username and password are required")
)

// Compared against when the username is unknown so both failure paths do
// the same bcrypt work.
var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

func getDummyHash() []byte {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	})
	return dummyHash
}

type AuthService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	cfg         *config.Config
	log         *zap.Logger
	now         func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, cfg *config.Config, log *zap.Logger) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		cfg:         cfg,
		log:         log.With(zap.String("component", "auth")),
		now:         time.Now,
	}
}

type LoginInput struct {
	Username string
	Password string
}

type LoginResult struct {
	Token      string
	Session    *domain.Session
	RedirectTo string
}

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(getDummyHash(), []byte(input.Password))
			s.log.Info("login failed", zap.String("username", input.Username))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		s.log.Info("login failed", zap.String("username", input.Username))
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Username:  user.Username,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	token, err := s.signToken(session)
	if err != nil {
		return nil, err
	}

	s.log.Info("login succeeded", zap.String("username", user.Username), zap.String("user_id", user.ID.String()))

	return &LoginResult{
		Token:      token,
		Session:    session,
		RedirectTo: s.cfg.LoginRedirect,
	}, nil
}

// Authenticate resolves a session token into a live session. It never
// writes to the session store.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Session, error) {
	claims, err := s.parseToken(token, true)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	session, err := s.sessionRepo.GetByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}

	if session.UserID.String() != claims.Subject {
		return nil, ErrUnauthenticated
	}
	if session.Expired(s.now()) {
		return nil, ErrUnauthenticated
	}

	return session, nil
}

// Logout destroys the session behind token. Unknown, expired or malformed
// tokens count as already logged out.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.parseToken(token, false)
	if err != nil {
		return nil
	}

	if err := s.sessionRepo.Delete(ctx, claims.SessionID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	s.log.Info("logout", zap.String("user_id", claims.Subject))
	return nil
}

// CreateUser registers a login principal. It backs the seeding CLI; the HTTP
// surface has no registration route.
func (s *AuthService) CreateUser(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidUserInput
	}

	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err == nil && existing != nil {
		return nil, ErrUsernameTaken
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &domain.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hashedPassword),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent insert of the same name.
		if errors.Is(err, domain.ErrConflict) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	s.log.Info("user created", zap.String("username", username), zap.String("user_id", user.ID.String()))
	return user, nil
}

func (s *AuthService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.sessionRepo.DeleteExpired(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("purged expired sessions", zap.Int64("count", n))
	}
	return n, nil
}

func (s *AuthService) signToken(session *domain.Session) (string, error) {
	claims := sessionClaims{
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.SessionSecret))
}

func (s *AuthService) parseToken(tokenString string, validateClaims bool) (*sessionClaims, error) {
	if tokenString == "" {
		return nil, errors.New("empty token")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if !validateClaims {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.SessionSecret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.SessionID == "" {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
