package repofakes

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/user-account-service/internal/domain"
	"github.com/spec-kit/user-account-service/internal/repository"
)

var _ repository.TokenRepository = (*FakeTokenRepo)(nil)

// FakeTokenRepo is an in-memory TokenRepository with the same refresh and
// sweep semantics as the Postgres implementation.
type FakeTokenRepo struct {
	tokens map[string]*domain.SessionToken
	err    error
	lock   sync.RWMutex
}

func NewFakeTokenRepo() *FakeTokenRepo {
	return &FakeTokenRepo{tokens: make(map[string]*domain.SessionToken)}
}

// FailWith makes every subsequent call return err; pass nil to recover.
func (tr *FakeTokenRepo) FailWith(err error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()
	tr.err = err
}

func (tr *FakeTokenRepo) Get(_ context.Context, value string) (*domain.SessionToken, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	if tr.err != nil {
		return nil, tr.err
	}
	token, ok := tr.tokens[value]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *token
	return &copied, nil
}

func (tr *FakeTokenRepo) Put(_ context.Context, token *domain.SessionToken) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	if tr.err != nil {
		return tr.err
	}
	copied := *token
	tr.tokens[token.Token] = &copied
	return nil
}

func (tr *FakeTokenRepo) RefreshUsage(_ context.Context, value string, usedAt, staleBefore time.Time) (string, bool, error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	if tr.err != nil {
		return "", false, tr.err
	}
	token, ok := tr.tokens[value]
	if !ok || !token.LastUsedAt.After(staleBefore) {
		return "", false, nil
	}
	if usedAt.After(token.LastUsedAt) {
		token.LastUsedAt = usedAt
	}
	return token.UserID, true, nil
}

func (tr *FakeTokenRepo) DeleteByValue(_ context.Context, value string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	if tr.err != nil {
		return tr.err
	}
	delete(tr.tokens, value)
	return nil
}

func (tr *FakeTokenRepo) DeleteBySubject(_ context.Context, userID string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	if tr.err != nil {
		return tr.err
	}
	for value, token := range tr.tokens {
		if token.UserID == userID {
			delete(tr.tokens, value)
		}
	}
	return nil
}

func (tr *FakeTokenRepo) DeleteWhereOlderThan(_ context.Context, threshold time.Time) (int64, error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	if tr.err != nil {
		return 0, tr.err
	}
	var removed int64
	for value, token := range tr.tokens {
		if !token.LastUsedAt.After(threshold) {
			delete(tr.tokens, value)
			removed++
		}
	}
	return removed, nil
}

// Count reports the number of stored tokens.
func (tr *FakeTokenRepo) Count() int {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	return len(tr.tokens)
}
