package repofakes

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/user-account-service/internal/domain"
	"github.com/spec-kit/user-account-service/internal/repository"
)

var _ repository.UserRepository = (*FakeUserRepo)(nil)

// FakeUserRepo is an in-memory UserRepository. WithTx snapshots state and
// restores it when fn fails, matching the Postgres rollback behavior.
type FakeUserRepo struct {
	users map[string]*domain.User
	order []string
	lock  sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{users: make(map[string]*domain.User)}
}

func (ur *FakeUserRepo) Create(_ context.Context, user *domain.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	copied := *user
	ur.users[user.ID] = &copied
	ur.order = append(ur.order, user.ID)
	return nil
}

func (ur *FakeUserRepo) Update(_ context.Context, user *domain.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, ok := ur.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	user.UpdatedAt = time.Now()
	copied := *user
	ur.users[user.ID] = &copied
	return nil
}

func (ur *FakeUserRepo) Delete(_ context.Context, id string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, ok := ur.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(ur.users, id)
	for i, existing := range ur.order {
		if existing == id {
			ur.order = append(ur.order[:i], ur.order[i+1:]...)
			break
		}
	}
	return nil
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	user, ok := ur.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (ur *FakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	for _, user := range ur.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (ur *FakeUserRepo) List(_ context.Context, page, size int, excludeID string) ([]*domain.User, int64, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	matching := make([]*domain.User, 0, len(ur.order))
	for _, id := range ur.order {
		user := ur.users[id]
		if user.Inactive || (excludeID != "" && user.ID == excludeID) {
			continue
		}
		matching = append(matching, user)
	}

	total := int64(len(matching))
	start := page * size
	if start >= len(matching) {
		return []*domain.User{}, total, nil
	}
	end := start + size
	if end > len(matching) {
		end = len(matching)
	}

	users := make([]*domain.User, 0, end-start)
	for _, user := range matching[start:end] {
		copied := *user
		users = append(users, &copied)
	}
	return users, total, nil
}

func (ur *FakeUserRepo) WithTx(ctx context.Context, fn func(ctx context.Context, repo repository.UserRepository) error) error {
	ur.lock.Lock()
	snapshot := make(map[string]*domain.User, len(ur.users))
	for id, user := range ur.users {
		copied := *user
		snapshot[id] = &copied
	}
	orderSnapshot := append([]string(nil), ur.order...)
	ur.lock.Unlock()

	if err := fn(ctx, ur); err != nil {
		ur.lock.Lock()
		ur.users = snapshot
		ur.order = orderSnapshot
		ur.lock.Unlock()
		return err
	}
	return nil
}
