package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dejobratic/shopkart/internal/addresses/adapters/memory"
	"github.com/dejobratic/shopkart/internal/addresses/app"
	"github.com/dejobratic/shopkart/internal/addresses/ports"
	"github.com/dejobratic/shopkart/internal/apperrors"
)

func input() app.SaveInput {
	return app.SaveInput{
		FullName:    "Asha Rao",
		Phone:       "9876543210",
		AddressLine: "12 MG Road",
		City:        "Bengaluru",
		State:       "KA",
		Pincode:     "560001",
	}
}

func TestSaveCreatesAndUpdates(t *testing.T) {
	svc := app.NewService(memory.NewRepository())
	ctx := context.Background()

	created, err := svc.Save(ctx, "u-1", input())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	in := input()
	in.ID = created.ID
	in.City = "Mysuru"
	updated, err := svc.Save(ctx, "u-1", in)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	list, err := svc.List(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Mysuru", list[0].City)
}

func TestSaveRejects(t *testing.T) {
	svc := app.NewService(memory.NewRepository())
	ctx := context.Background()

	owned, err := svc.Save(ctx, "u-1", input())
	require.NoError(t, err)

	t.Run("blank field", func(t *testing.T) {
		in := input()
		in.State = " "
		_, err := svc.Save(ctx, "u-1", in)
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
	})

	t.Run("foreign address", func(t *testing.T) {
		in := input()
		in.ID = owned.ID
		_, err := svc.Save(ctx, "u-2", in)
		assert.True(t, errors.Is(err, ports.ErrNotOwner))
	})

	t.Run("unknown address", func(t *testing.T) {
		in := input()
		in.ID = "missing"
		_, err := svc.Save(ctx, "u-1", in)
		assert.True(t, errors.Is(err, ports.ErrNotFound))
	})
}

func TestDelete(t *testing.T) {
	repo := memory.NewRepository()
	svc := app.NewService(repo)
	ctx := context.Background()

	var deleted []string
	repo.OnDelete(func(id string) { deleted = append(deleted, id) })

	a, err := svc.Save(ctx, "u-1", input())
	require.NoError(t, err)

	assert.True(t, errors.Is(svc.Delete(ctx, "u-2", a.ID), apperrors.ErrForbidden))
	require.NoError(t, svc.Delete(ctx, "u-1", a.ID))
	assert.Equal(t, []string{a.ID}, deleted)

	_, err = svc.Get(ctx, "u-1", a.ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
