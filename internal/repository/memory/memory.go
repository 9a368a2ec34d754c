// Package memory holds mutex-guarded in-memory implementations of the
// repository interfaces. They back the usecase and handler tests and keep
// the same semantics as the postgres implementations, including the
// conditional swap on refresh-record rotation.
package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/recipe-app/backend/internal/domain"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[uuid.UUID]*domain.User)}
}

func (r *UserRepository) Create(user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return domain.ErrDuplicateUsername
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *UserRepository) GetByID(id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) GetByUsername(username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *UserRepository) UpdateLastLogin(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		now := time.Now()
		u.LastLoginAt = &now
	}
	return nil
}

// Count reports the number of stored users.
func (r *UserRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

type RefreshRecordRepository struct {
	mu      sync.Mutex
	records []*domain.RefreshRecord
}

func NewRefreshRecordRepository() *RefreshRecordRepository {
	return &RefreshRecordRepository{}
}

func (r *RefreshRecordRepository) Append(rec *domain.RefreshRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.CreatedAt = time.Now()
	cp := *rec
	r.records = append(r.records, &cp)
	return nil
}

func (r *RefreshRecordRepository) GetByTokenHash(userID uuid.UUID, tokenHash string) (*domain.RefreshRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.UserID == userID && rec.TokenHash == tokenHash {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *RefreshRecordRepository) Replace(userID uuid.UUID, oldTokenHash, newTokenHash string, expiresAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.UserID == userID && rec.TokenHash == oldTokenHash {
			rec.TokenHash = newTokenHash
			rec.ExpiresAt = expiresAt
			return true, nil
		}
	}
	return false, nil
}

func (r *RefreshRecordRepository) DeleteByTokenHash(userID uuid.UUID, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, rec := range r.records {
		if rec.UserID == userID && rec.TokenHash == tokenHash {
			r.records = append(r.records[:i], r.records[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *RefreshRecordRepository) DeleteAllByUserID(userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.records[:0]
	for _, rec := range r.records {
		if rec.UserID != userID {
			kept = append(kept, rec)
		}
	}
	r.records = kept
	return nil
}

func (r *RefreshRecordRepository) ListByUserID(userID uuid.UUID) ([]*domain.RefreshRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.RefreshRecord
	for _, rec := range r.records {
		if rec.UserID == userID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

type LoginEventRepository struct {
	mu     sync.Mutex
	events []*domain.LoginEvent
}

func NewLoginEventRepository() *LoginEventRepository {
	return &LoginEventRepository{}
}

func (r *LoginEventRepository) Create(event *domain.LoginEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.CreatedAt = time.Now()
	cp := *event
	r.events = append(r.events, &cp)
	return nil
}

func (r *LoginEventRepository) ListByUser(userID uuid.UUID, limit, offset int) ([]*domain.LoginEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.LoginEvent
	for _, e := range r.events {
		if e.UserID == userID {
			cp := *e
			out = append(out, &cp)
		}
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
