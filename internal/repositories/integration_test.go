//go:build integration

package repositories_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"krishak/internal/apperror"
	"krishak/internal/database"
	"krishak/internal/models"
	"krishak/internal/repositories"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

func startContainer(t *testing.T, req testcontainers.ContainerRequest) (string, string) {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start %s container: %v", req.Image, err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, req.ExposedPorts[0])
	require.NoError(t, err)
	return host, port.Port()
}

func setupPostgres(t *testing.T) *gorm.DB {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:14-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "krishak",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	})

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/krishak?sslmode=disable", host, port)
	db, err := database.Open("postgres", dsn)
	require.NoError(t, err)
	return db
}

func TestPostgres_ConcurrentOrdersNeverOversell(t *testing.T) {
	ctx := context.Background()
	db := setupPostgres(t)
	products := repositories.NewGORMProductRepository(db)
	orders := repositories.NewGORMOrderRepository(db)

	require.NoError(t, products.Create(ctx, &models.Product{ID: "6c1f0f3e-0000-4000-8000-000000000001", Name: "Milk", Price: price("60"), Stock: 10}))

	var wg sync.WaitGroup
	var mu sync.Mutex
	placed, refused := 0, 0
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := orders.Create(ctx, newOrder("b1", models.OrderItem{
				ProductID: "6c1f0f3e-0000-4000-8000-000000000001",
				Quantity:  1,
				Price:     price("60"),
				LineTotal: price("60"),
			}))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				placed++
			case apperror.IsKind(err, apperror.InsufficientStock):
				refused++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	p, err := products.GetByID(ctx, "6c1f0f3e-0000-4000-8000-000000000001")
	require.NoError(t, err)
	assert.Equal(t, 10, placed)
	assert.Equal(t, 20, refused)
	assert.Equal(t, 0, p.Stock)
}

func TestPostgres_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewGORMUserRepository(setupPostgres(t))

	require.NoError(t, repo.Create(ctx, &models.User{Name: "A", Email: "a@example.com", PasswordHash: "h", UserType: models.Buyer}))
	err := repo.Create(ctx, &models.User{Name: "B", Email: "a@example.com", PasswordHash: "h", UserType: models.Buyer})
	assert.True(t, apperror.IsKind(err, apperror.DuplicateEmail))
}

func TestRedisCartRepository(t *testing.T) {
	ctx := context.Background()
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	})
	client := redis.NewClient(&redis.Options{Addr: host + ":" + port})
	defer client.Close()

	repo := repositories.NewRedisCartRepository(client, time.Hour)
	t0 := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Put(ctx, "b1", models.CartItem{ProductID: "p2", Quantity: 1, Price: price("120"), AddedAt: t0.Add(time.Minute)}))
	require.NoError(t, repo.Put(ctx, "b1", models.CartItem{ProductID: "p1", Quantity: 2, Price: price("40"), AddedAt: t0}))

	items, err := repo.Items(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "p1", items[0].ProductID)
	assert.True(t, price("40").Equal(items[0].Price))

	ttl, err := client.TTL(ctx, "cart:b1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, repo.Remove(ctx, "b1", "p1"))
	require.NoError(t, repo.Remove(ctx, "b1", "p1"))
	require.NoError(t, repo.Clear(ctx, "b1"))
	items, err = repo.Items(ctx, "b1")
	require.NoError(t, err)
	assert.Empty(t, items)
}
