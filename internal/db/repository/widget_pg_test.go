package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	internaldb "genie-dashboard/internal/db"
	"genie-dashboard/internal/domain"
)

func setupPGWidgetRepo(t *testing.T) *PGWidgetRepo {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("widgets"),
		postgres.WithUsername("dash"),
		postgres.WithPassword("dash"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, pgContainer)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := internaldb.OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, internaldb.MigratePostgres(ctx, pool, nil))
	return NewPGWidgetRepo(pool)
}

func TestPGWidgetRepo_Lifecycle(t *testing.T) {
	repo := setupPGWidgetRepo(t)
	ctx := context.Background()

	// Postgres keeps microseconds.
	base := t0.Truncate(time.Microsecond)

	created, err := repo.Create(ctx, makeWidget("w-b", base))
	require.NoError(t, err)
	assert.Equal(t, "w-b", created.ID)
	assert.True(t, base.Equal(created.CreatedAt))
	assert.Equal(t, domain.ChartBar, created.Visualization.Kind())

	_, err = repo.Create(ctx, makeWidget("w-a", base))
	require.NoError(t, err)
	_, err = repo.Create(ctx, makeWidget("w-c", base.Add(-time.Minute)))
	require.NoError(t, err)

	_, err = repo.Create(ctx, makeWidget("w-a", base))
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"w-c", "w-a", "w-b"}, []string{all[0].ID, all[1].ID, all[2].ID})

	layout := domain.WidgetLayout{X: 6, Y: 0, W: 6, H: 3}
	updated, err := repo.Update(ctx, "w-b", domain.WidgetPatch{Layout: &layout})
	require.NoError(t, err)
	assert.Equal(t, layout, updated.Layout)
	assert.Equal(t, created.Visualization, updated.Visualization)

	got, err := repo.GetByID(ctx, "w-b")
	require.NoError(t, err)
	assert.Equal(t, layout, got.Layout)
	assert.True(t, updated.UpdatedAt.Equal(got.UpdatedAt))

	_, err = repo.Update(ctx, "missing", domain.WidgetPatch{Layout: &layout})
	assert.True(t, domain.IsNotFound(err))

	require.NoError(t, repo.Delete(ctx, "w-b"))
	assert.True(t, domain.IsNotFound(repo.Delete(ctx, "w-b")))
	_, err = repo.GetByID(ctx, "w-b")
	assert.True(t, domain.IsNotFound(err))
}

func TestPGWidgetRepo_MigrationsAreIdempotent(t *testing.T) {
	repo := setupPGWidgetRepo(t)
	require.NoError(t, internaldb.MigratePostgres(context.Background(), repo.pool, nil))
}
