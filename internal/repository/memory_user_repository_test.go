package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/bus-tracking/internal/domain"
)

func TestMemoryUserRepositoryCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	user := &domain.User{Name: "Asha", Email: "  Asha@GEU.ac.in ", PasswordHash: "hash", Role: domain.RoleStudent}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "asha@geu.ac.in", user.Email)
	assert.False(t, user.CreatedAt.IsZero())

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user, byID)

	byEmail, err := repo.GetByEmail(ctx, "ASHA@geu.ac.in")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
}

func TestMemoryUserRepositoryNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	_, err := repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetByEmail(ctx, "nobody@geu.ac.in")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryUserRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()
	user := &domain.User{Name: "Ravi", Email: "ravi@geu.ac.in", Role: domain.RoleDriver}
	require.NoError(t, repo.Create(ctx, user))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	got.Role = domain.RoleStudent

	again, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleDriver, again.Role)
}

func TestMemoryUserRepositorySerializesSameEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	var (
		wg         sync.WaitGroup
		created    atomic.Int32
		duplicates atomic.Int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := repo.Create(ctx, &domain.User{Name: fmt.Sprintf("user-%d", i), Email: "same@geu.ac.in", Role: domain.RoleStudent})
			switch err {
			case nil:
				created.Add(1)
			case ErrDuplicateEmail:
				duplicates.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, int32(19), duplicates.Load())
}
