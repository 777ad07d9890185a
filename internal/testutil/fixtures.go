package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dom/account-market/internal/domain"
	"github.com/dom/account-market/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	username string
	password string
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		username: fmt.Sprintf("testuser_%s", uuid.New().String()[:8]),
		password: "testpassword123",
	}
}

// WithUsername sets the username
func (b *UserBuilder) WithUsername(name string) *UserBuilder {
	b.username = name
	return b
}

// WithPassword sets the password
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// Build stores the user and returns it with the raw password
func (b *UserBuilder) Build(t *testing.T, repo repository.UserRepository) (*domain.User, string) {
	t.Helper()

	// The service hashes with DefaultCost; fixtures only need a valid hash.
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     b.username,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// BuildAndLogin stores the user, logs in through the API and returns the
// session cookie.
func (b *UserBuilder) BuildAndLogin(t *testing.T, ts *TestServer) (*domain.User, *http.Cookie) {
	t.Helper()

	user, password := b.Build(t, ts.Repos.User)
	return user, Login(t, ts, user.Username, password)
}

// Login posts credentials and returns the session cookie
func Login(t *testing.T, ts *TestServer, username, password string) *http.Cookie {
	t.Helper()

	body, _ := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})

	resp, err := http.Post(ts.URL("/login"), "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("failed to log in: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected login status code: %d", resp.StatusCode)
	}

	for _, c := range resp.Cookies() {
		if c.Name == ts.Config.SessionCookieName {
			return c
		}
	}
	t.Fatalf("login response carried no %q cookie", ts.Config.SessionCookieName)
	return nil
}

// SeedListing stores a listing directly, bypassing the service
func SeedListing(t *testing.T, repo repository.ListingRepository, fields map[string]interface{}, createdAt time.Time, owner *uuid.UUID) *domain.Listing {
	t.Helper()

	listing := &domain.Listing{
		ID:        uuid.New(),
		Fields:    datatypes.JSONMap(fields),
		OwnerID:   owner,
		CreatedAt: createdAt,
	}
	if err := repo.Create(context.Background(), listing); err != nil {
		t.Fatalf("failed to seed listing: %v", err)
	}
	return listing
}

// NewRequest builds a request carrying cookie when it is non-nil
func NewRequest(t *testing.T, method, url string, body interface{}, cookie *http.Cookie) *http.Request {
	t.Helper()

	var reqBody *bytes.Buffer
	switch b := body.(type) {
	case nil:
		reqBody = bytes.NewBuffer(nil)
	case string:
		reqBody = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}
