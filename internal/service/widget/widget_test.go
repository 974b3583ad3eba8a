package widget

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genie-dashboard/internal/domain"
	"genie-dashboard/internal/testutil"
)

var errTest = errors.New("boom")

func bar() domain.VisualizationConfig {
	return domain.NewVisualization(domain.BarChart{XAxisKey: "region", YAxisKey: "sales", Title: "Sales"})
}

func newTestService() (*Service, *testutil.MemWidgetRepo, *testutil.EventRecorder) {
	repo := testutil.NewMemWidgetRepo()
	rec := &testutil.EventRecorder{}
	return NewService(repo, rec, nil), repo, rec
}

func TestService_Create(t *testing.T) {
	t.Run("happy_path", func(t *testing.T) {
		svc, repo, rec := newTestService()

		w, err := svc.Create(context.Background(), domain.CreateWidgetRequest{
			ConversationID: "c-1",
			MessageID:      "m-1",
			SQL:            "SELECT region, sales FROM t",
			Visualization:  bar(),
		})
		require.NoError(t, err)

		assert.NotEmpty(t, w.ID)
		assert.Equal(t, domain.DefaultDashboardID, w.DashboardID)
		assert.Equal(t, "SELECT region, sales FROM t", w.DatabricksQueryID)
		assert.Equal(t, domain.DefaultWidgetLayout, w.Layout)
		assert.Equal(t, w.CreatedAt, w.UpdatedAt)
		assert.Equal(t, time.UTC, w.CreatedAt.Location())
		assert.Equal(t, 1, repo.Len())
		assert.Equal(t, []domain.WidgetEventType{domain.WidgetCreated}, rec.Types())
		assert.Equal(t, w.ID, rec.Events[0].WidgetID)
	})

	t.Run("explicit_dashboard_and_layout", func(t *testing.T) {
		svc, _, _ := newTestService()

		w, err := svc.Create(context.Background(), domain.CreateWidgetRequest{
			DashboardID:   "ops",
			SQL:           "SELECT 1",
			Visualization: domain.NewVisualization(domain.TableView{}),
			Layout:        &domain.WidgetLayout{X: 6, Y: 0, W: 6, H: 3},
		})
		require.NoError(t, err)
		assert.Equal(t, "ops", w.DashboardID)
		assert.Equal(t, domain.WidgetLayout{X: 6, Y: 0, W: 6, H: 3}, w.Layout)
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name string
			req  domain.CreateWidgetRequest
		}{
			{name: "empty sql", req: domain.CreateWidgetRequest{SQL: " ", Visualization: bar()}},
			{name: "missing visualization", req: domain.CreateWidgetRequest{SQL: "SELECT 1"}},
			{name: "incomplete pie", req: domain.CreateWidgetRequest{
				SQL:           "SELECT 1",
				Visualization: domain.NewVisualization(domain.PieChart{NameKey: "region"}),
			}},
			{name: "zero width", req: domain.CreateWidgetRequest{
				SQL: "SELECT 1", Visualization: bar(), Layout: &domain.WidgetLayout{W: 0, H: 2},
			}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				svc, repo, rec := newTestService()
				_, err := svc.Create(context.Background(), tt.req)

				var verr *domain.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, 0, repo.Len())
				assert.Empty(t, rec.Events)
			})
		}
	})

	t.Run("repo_error", func(t *testing.T) {
		svc, repo, rec := newTestService()
		repo.CreateFn = func(_ context.Context, _ *domain.Widget) (*domain.Widget, error) {
			return nil, errTest
		}

		_, err := svc.Create(context.Background(), domain.CreateWidgetRequest{SQL: "SELECT 1", Visualization: bar()})
		require.Error(t, err)
		assert.ErrorIs(t, err, errTest)
		assert.Empty(t, rec.Events, "no event on failure")
	})
}

func TestService_List(t *testing.T) {
	svc, repo, _ := newTestService()

	empty, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	calls := 0
	svc.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Minute)
	}
	first, err := svc.Create(context.Background(), domain.CreateWidgetRequest{SQL: "SELECT 1", Visualization: bar()})
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), domain.CreateWidgetRequest{SQL: "SELECT 2", Visualization: bar()})
	require.NoError(t, err)

	got, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, second.ID, got[1].ID)
	assert.Equal(t, 2, repo.Len())
}

func TestService_Update(t *testing.T) {
	t.Run("layout_keeps_visualization", func(t *testing.T) {
		svc, repo, rec := newTestService()
		created, err := svc.Create(context.Background(), domain.CreateWidgetRequest{SQL: "SELECT 1", Visualization: bar()})
		require.NoError(t, err)

		later := created.UpdatedAt.Add(time.Hour)
		repo.Now = func() time.Time { return later }

		layout := domain.WidgetLayout{X: 3, Y: 2, W: 4, H: 4}
		updated, err := svc.Update(context.Background(), created.ID, domain.WidgetPatch{Layout: &layout})
		require.NoError(t, err)

		assert.Equal(t, layout, updated.Layout)
		assert.Equal(t, created.Visualization, updated.Visualization)
		assert.Equal(t, created.DatabricksQueryID, updated.DatabricksQueryID)
		assert.Equal(t, created.CreatedAt, updated.CreatedAt)
		assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
		assert.Equal(t, []domain.WidgetEventType{domain.WidgetCreated, domain.WidgetUpdated}, rec.Types())
	})

	t.Run("visualization_keeps_layout", func(t *testing.T) {
		svc, _, _ := newTestService()
		created, err := svc.Create(context.Background(), domain.CreateWidgetRequest{SQL: "SELECT 1", Visualization: bar()})
		require.NoError(t, err)

		pie := domain.NewVisualization(domain.PieChart{NameKey: "region", ValueKey: "sales"})
		updated, err := svc.Update(context.Background(), created.ID, domain.WidgetPatch{Visualization: &pie})
		require.NoError(t, err)
		assert.Equal(t, domain.ChartPie, updated.Visualization.Kind())
		assert.Equal(t, created.Layout, updated.Layout)
	})

	t.Run("empty_patch_bumps_updated_at", func(t *testing.T) {
		svc, repo, _ := newTestService()
		created, err := svc.Create(context.Background(), domain.CreateWidgetRequest{SQL: "SELECT 1", Visualization: bar()})
		require.NoError(t, err)

		later := created.UpdatedAt.Add(time.Minute)
		repo.Now = func() time.Time { return later }

		updated, err := svc.Update(context.Background(), created.ID, domain.WidgetPatch{})
		require.NoError(t, err)
		assert.Equal(t, later.UTC(), updated.UpdatedAt)
		assert.Equal(t, created.Layout, updated.Layout)
	})

	t.Run("not_found_leaves_store_unchanged", func(t *testing.T) {
		svc, repo, rec := newTestService()
		created, err := svc.Create(context.Background(), domain.CreateWidgetRequest{SQL: "SELECT 1", Visualization: bar()})
		require.NoError(t, err)

		layout := domain.WidgetLayout{X: 1, Y: 1, W: 2, H: 2}
		_, err = svc.Update(context.Background(), "missing", domain.WidgetPatch{Layout: &layout})
		assert.True(t, domain.IsNotFound(err))

		got, err := svc.Get(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, *created, *got)
		assert.Equal(t, 1, repo.Len())
		assert.Equal(t, []domain.WidgetEventType{domain.WidgetCreated}, rec.Types())
	})

	t.Run("invalid_layout", func(t *testing.T) {
		svc, _, _ := newTestService()
		layout := domain.WidgetLayout{X: -1, Y: 0, W: 2, H: 2}
		_, err := svc.Update(context.Background(), "any", domain.WidgetPatch{Layout: &layout})

		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
	})
}

func TestService_Delete(t *testing.T) {
	t.Run("happy_path", func(t *testing.T) {
		svc, repo, rec := newTestService()
		created, err := svc.Create(context.Background(), domain.CreateWidgetRequest{SQL: "SELECT 1", Visualization: bar()})
		require.NoError(t, err)

		require.NoError(t, svc.Delete(context.Background(), created.ID))
		assert.Equal(t, 0, repo.Len())
		assert.Equal(t, []domain.WidgetEventType{domain.WidgetCreated, domain.WidgetDeleted}, rec.Types())

		_, err = svc.Get(context.Background(), created.ID)
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("not_found", func(t *testing.T) {
		svc, _, rec := newTestService()
		err := svc.Delete(context.Background(), "missing")
		assert.True(t, domain.IsNotFound(err))
		assert.Empty(t, rec.Events)
	})
}

func TestService_NilPublisher(t *testing.T) {
	svc := NewService(testutil.NewMemWidgetRepo(), nil, nil)
	_, err := svc.Create(context.Background(), domain.CreateWidgetRequest{SQL: "SELECT 1", Visualization: bar()})
	require.NoError(t, err)
}
