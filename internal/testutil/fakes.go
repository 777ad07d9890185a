package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dom/account-market/internal/domain"
	"github.com/dom/account-market/internal/repository"
	"github.com/google/uuid"
)

// ListingStore is an in-memory repository.ListingRepository. Setting Err
// makes every call fail with it.
type ListingStore struct {
	mu       sync.Mutex
	listings map[uuid.UUID]*domain.Listing
	Calls    int
	Err      error
}

func NewListingStore() *ListingStore {
	return &ListingStore{listings: make(map[uuid.UUID]*domain.Listing)}
}

func (s *ListingStore) List(ctx context.Context) ([]*domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}

	out := make([]*domain.Listing, 0, len(s.listings))
	for _, l := range s.listings {
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *ListingStore) Create(ctx context.Context, listing *domain.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	if s.Err != nil {
		return s.Err
	}
	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}
	cp := *listing
	s.listings[listing.ID] = &cp
	return nil
}

func (s *ListingStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}
	l, ok := s.listings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *ListingStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	if s.Err != nil {
		return false, s.Err
	}
	if _, ok := s.listings[id]; !ok {
		return false, nil
	}
	delete(s.listings, id)
	return true, nil
}

func (s *ListingStore) SetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Err = err
}

func (s *ListingStore) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Calls
}

// UserStore is an in-memory repository.UserRepository.
type UserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
	Err   error
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[uuid.UUID]*domain.User)}
}

func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, u := range s.users {
		if u.Username == user.Username {
			return errDuplicate
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *UserStore) SetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Err = err
}

func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// SessionStore is an in-memory repository.SessionRepository.
type SessionStore struct {
	mu        sync.Mutex
	sessions  map[string]*domain.Session
	Err       error
	DeleteErr error
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*domain.Session)}
}

func (s *SessionStore) Create(ctx context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	cp := *session
	s.sessions[session.ID] = &cp
	return nil
}

func (s *SessionStore) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	if s.Err != nil {
		return s.Err
	}
	delete(s.sessions, id)
	return nil
}

func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	now := time.Now()
	var n int64
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}

func (s *SessionStore) SetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Err = err
}

func (s *SessionStore) SetDeleteErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DeleteErr = err
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// ExpireAll moves every stored session's expiry into the past.
func (s *SessionStore) ExpireAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		sess.ExpiresAt = time.Now().Add(-time.Minute)
	}
}

// StorePinger is a repository.Pinger returning the configured error.
type StorePinger struct {
	mu  sync.Mutex
	err error
}

func (p *StorePinger) SetErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *StorePinger) Ping(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

var errDuplicate = fmt.Errorf("%w: duplicate key value violates unique constraint", domain.ErrConflict)

// FakeRepositories bundles fresh in-memory stores.
type FakeRepositories struct {
	Listings *ListingStore
	Users    *UserStore
	Sessions *SessionStore
	Pinger   *StorePinger
}

func NewFakeRepositories() *FakeRepositories {
	return &FakeRepositories{
		Listings: NewListingStore(),
		Users:    NewUserStore(),
		Sessions: NewSessionStore(),
		Pinger:   &StorePinger{},
	}
}

func (f *FakeRepositories) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Listing: f.Listings,
		User:    f.Users,
		Session: f.Sessions,
		Store:   f.Pinger,
	}
}
