package repositories_test

import (
	"context"
	"testing"

	"krishak/internal/apperror"
	"krishak/internal/models"
	"krishak/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repos := map[string]repositories.UserRepository{
		"gorm":   repositories.NewGORMUserRepository(newTestDB(t)),
		"memory": repositories.NewMemoryUserRepository(),
	}
	for name, repo := range repos {
		t.Run(name, func(t *testing.T) {
			u := &models.User{
				Name:         "Rajesh Kumar",
				Email:        "rajesh@example.com",
				PasswordHash: "hash",
				UserType:     models.Seller,
				AadharNumber: "123412341234",
				Address:      models.Address{City: "Jaipur", Pincode: "302001"},
			}
			require.NoError(t, repo.Create(ctx, u))
			assert.NotEmpty(t, u.ID)

			dup := &models.User{Name: "Other", Email: "rajesh@example.com", PasswordHash: "h", UserType: models.Buyer}
			err := repo.Create(ctx, dup)
			assert.True(t, apperror.IsKind(err, apperror.DuplicateEmail))

			byEmail, err := repo.GetByEmail(ctx, "rajesh@example.com")
			require.NoError(t, err)
			assert.Equal(t, u.ID, byEmail.ID)
			assert.Equal(t, "Jaipur", byEmail.Address.City)

			byEmail.Phone = "9876543210"
			require.NoError(t, repo.Update(ctx, byEmail))
			byID, err := repo.GetByID(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, "9876543210", byID.Phone)

			_, err = repo.GetByID(ctx, "missing")
			assert.True(t, apperror.IsKind(err, apperror.NotFound))
			_, err = repo.GetByEmail(ctx, "nobody@example.com")
			assert.True(t, apperror.IsKind(err, apperror.NotFound))

			all, err := repo.List(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 1)
		})
	}
}
