package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/anzhiyu-c/anheyu-fm-console/internal/infra/persistence/database"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/constant"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/idgen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *submissionRepo {
	t.Helper()
	require.NoError(t, idgen.InitSqidsEncoderWithSeed("sqlstore-test"))

	db, err := database.Open(database.DialectSQLite, database.SQLiteDSN(filepath.Join(t.TempDir(), "fm.db")))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.NewMigrationService(db, database.DialectSQLite).RunMigrations(context.Background()))

	repo := NewSubmissionRepo(db, database.DialectSQLite).(*submissionRepo)
	clock := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return repo
}

func TestSubmissionRepo_CreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	s := &model.Submission{DraftID: "d1", RecordID: "12", Kind: "event", Method: "PUT", Endpoint: "events/12.json"}
	require.NoError(t, repo.Create(ctx, s))
	assert.NotZero(t, s.ID)
	assert.NotEmpty(t, s.PublicID)
	assert.Equal(t, model.SubmissionPending, s.Status)

	require.NoError(t, repo.UpdateResult(ctx, s.ID, model.SubmissionFailed, 422, "Event name taken"))

	got, err := repo.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionFailed, got.Status)
	assert.Equal(t, 422, got.HTTPStatus)
	assert.Equal(t, "Event name taken", got.Message)
	assert.Equal(t, "12", got.RecordID)
	assert.Equal(t, s.PublicID, got.PublicID)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))

	id, err := idgen.DecodePublicID(got.PublicID, idgen.EntityTypeSubmission)
	require.NoError(t, err)
	assert.Equal(t, s.ID, id)
}

func TestSubmissionRepo_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.FindByID(ctx, 999)
	assert.ErrorIs(t, err, constant.ErrNotFound)
	assert.ErrorIs(t, repo.UpdateResult(ctx, 999, model.SubmissionSucceeded, 200, ""), constant.ErrNotFound)
}

func TestSubmissionRepo_List(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for i, kind := range []string{"event", "broadcast", "event", "testimonial", "event"} {
		s := &model.Submission{DraftID: "d", Kind: kind, Method: "POST", Endpoint: kind + ".json"}
		require.NoError(t, repo.Create(ctx, s))
		if i%2 == 0 {
			require.NoError(t, repo.UpdateResult(ctx, s.ID, model.SubmissionSucceeded, 201, ""))
		}
	}

	tests := []struct {
		name      string
		opts      model.ListSubmissionsOptions
		wantTotal int64
		wantLen   int
	}{
		{"全部", model.ListSubmissionsOptions{}, 5, 5},
		{"按类型过滤", model.ListSubmissionsOptions{Kind: "event"}, 3, 3},
		{"按状态过滤", model.ListSubmissionsOptions{Status: model.SubmissionSucceeded}, 3, 3},
		{"组合过滤", model.ListSubmissionsOptions{Kind: "event", Status: model.SubmissionPending}, 0, 0},
		{"分页", model.ListSubmissionsOptions{Page: 2, PageSize: 2}, 5, 2},
		{"最后一页", model.ListSubmissionsOptions{Page: 3, PageSize: 2}, 5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, total, err := repo.List(ctx, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, total)
			assert.Len(t, list, tt.wantLen)
		})
	}

	list, _, err := repo.List(ctx, model.ListSubmissionsOptions{PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, "event", list[0].Kind, "按创建时间倒序")
	assert.EqualValues(t, 5, list[0].ID)
}

func TestRebind(t *testing.T) {
	pg := &submissionRepo{dialect: database.DialectPostgres}
	assert.Equal(t, "a = $1 AND b = $2", pg.rebind("a = ? AND b = ?"))

	lite := &submissionRepo{dialect: database.DialectSQLite}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}
