package repositories_test

import (
	"context"
	"testing"

	"krishak/internal/apperror"
	"krishak/internal/models"
	"krishak/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func productRepos(t *testing.T) map[string]repositories.ProductRepository {
	return map[string]repositories.ProductRepository{
		"gorm":   repositories.NewGORMProductRepository(newTestDB(t)),
		"memory": repositories.NewMemoryProductRepository(),
	}
}

func TestProductRepository_ListFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	for name, repo := range productRepos(t) {
		t.Run(name, func(t *testing.T) {
			seedCatalog(t, repo)

			all, err := repo.List(ctx, repositories.ProductQuery{})
			require.NoError(t, err)
			assert.Equal(t, []string{"p-hoe", "p-milk", "p-rice", "p-tomato"}, ids(all), "newest first by default")

			byCategory, err := repo.List(ctx, repositories.ProductQuery{Category: "grains"})
			require.NoError(t, err)
			assert.Equal(t, []string{"p-rice"}, ids(byCategory))

			min, max := price("50"), price("200")
			inRange, err := repo.List(ctx, repositories.ProductQuery{MinPrice: &min, MaxPrice: &max, Sort: repositories.SortPriceLowHigh})
			require.NoError(t, err)
			assert.Equal(t, []string{"p-milk", "p-rice"}, ids(inRange))

			search, err := repo.List(ctx, repositories.ProductQuery{Search: "FRESH", Sort: repositories.SortPriceHighLow})
			require.NoError(t, err)
			assert.Equal(t, []string{"p-milk", "p-tomato"}, ids(search))

			byRating, err := repo.List(ctx, repositories.ProductQuery{Sort: repositories.SortRatingHighLow})
			require.NoError(t, err)
			assert.Equal(t, []string{"p-milk", "p-tomato", "p-rice", "p-hoe"}, ids(byRating))

			mine, err := repo.List(ctx, repositories.ProductQuery{SellerID: "s1", Sort: repositories.SortPriceLowHigh})
			require.NoError(t, err)
			assert.Equal(t, []string{"p-tomato", "p-milk"}, ids(mine))
		})
	}
}

func TestProductRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	for name, repo := range productRepos(t) {
		t.Run(name, func(t *testing.T) {
			p := &models.Product{Name: "Wheat Seeds", Price: price("99.50"), Stock: 5, Category: "seeds", SellerID: "s1"}
			require.NoError(t, repo.Create(ctx, p))
			assert.NotEmpty(t, p.ID)

			got, err := repo.GetByID(ctx, p.ID)
			require.NoError(t, err)
			assert.True(t, price("99.5").Equal(got.Price))

			got.Stock = 0
			got.Name = "Wheat Seeds HD"
			require.NoError(t, repo.Update(ctx, got))
			got, err = repo.GetByID(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, 0, got.Stock)
			assert.Equal(t, "Wheat Seeds HD", got.Name)

			require.NoError(t, repo.Delete(ctx, p.ID))
			_, err = repo.GetByID(ctx, p.ID)
			assert.True(t, apperror.IsKind(err, apperror.NotFound))

			err = repo.Delete(ctx, p.ID)
			assert.True(t, apperror.IsKind(err, apperror.NotFound))

			err = repo.Update(ctx, &models.Product{ID: "missing", Name: "x", Price: price("1")})
			assert.True(t, apperror.IsKind(err, apperror.NotFound))
		})
	}
}

func TestGORMProductRepository_DecrementStock(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewGORMProductRepository(newTestDB(t))
	seedCatalog(t, repo)

	require.NoError(t, repo.DecrementStock(ctx, "p-milk", 15))
	p, err := repo.GetByID(ctx, "p-milk")
	require.NoError(t, err)
	assert.Equal(t, 5, p.Stock)

	err = repo.DecrementStock(ctx, "p-milk", 6)
	assert.True(t, apperror.IsKind(err, apperror.InsufficientStock))
	p, err = repo.GetByID(ctx, "p-milk")
	require.NoError(t, err)
	assert.Equal(t, 5, p.Stock, "a refused decrement leaves stock untouched")
}

func TestGORMProductRepository_DecrementStockIsConditionalUpdate(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)
	repo := repositories.NewGORMProductRepository(db)

	tests := []struct {
		name     string
		existing int
		wantKind apperror.Kind
	}{
		{name: "short stock", existing: 1, wantKind: apperror.InsufficientStock},
		{name: "missing product", existing: 0, wantKind: apperror.NotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock.ExpectBegin()
			mock.ExpectExec(`UPDATE "products" SET "stock"=stock - \$1 WHERE .*id = \$2 AND stock >= \$3`).
				WithArgs(3, "p-1", 3).
				WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectCommit()
			mock.ExpectQuery(`SELECT count\(\*\) FROM "products" WHERE id = \$1`).
				WithArgs("p-1").
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(tt.existing))

			err := repo.DecrementStock(context.Background(), "p-1", 3)
			assert.True(t, apperror.IsKind(err, tt.wantKind), "got %v", err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
