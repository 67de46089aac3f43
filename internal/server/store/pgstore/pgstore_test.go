package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/fitkeeper/internal/common"
	"github.com/dmitrijs2005/fitkeeper/internal/server/models"
	"github.com/dmitrijs2005/fitkeeper/internal/server/store"
)

var bodyParts = store.Schema{Name: "body_parts"}

func newCollectionWithMock(t *testing.T) (*Collection[*models.BodyPart], sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	c := NewCollection(store.Ready(db), bodyParts, func() *models.BodyPart { return &models.BodyPart{} })
	return c, mock
}

func TestFind(t *testing.T) {
	c, mock := newCollectionWithMock(t)

	q := `(?s)^SELECT doc FROM documents WHERE collection = \$1 AND doc->'userId' @> \$2::jsonb ORDER BY doc->'order' ASC LIMIT \$3 OFFSET \$4$`
	rows := sqlmock.NewRows([]string{"doc"}).
		AddRow([]byte(`{"_id": "1", "name": "Chest", "order": 1, "isCustom": false}`)).
		AddRow([]byte(`{"_id": "2", "name": "Back", "order": 2, "createdAt": {"$date": "2025-03-01T10:00:00Z"}}`))
	mock.ExpectQuery(q).WithArgs("body_parts", `"u1"`, int64(10), int64(20)).WillReturnRows(rows)

	docs, err := c.Find(context.Background(), store.Filter{store.Eq("userId", "u1")}, store.FindOptions{
		Sort:  []store.SortField{{Field: "order", Dir: store.Asc}},
		Skip:  20,
		Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Chest", docs[0].Name)
	assert.Equal(t, 2, docs[1].Order)
	assert.Equal(t, 2025, docs[1].CreatedAt.Year())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindOne_NotFound(t *testing.T) {
	c, mock := newCollectionWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT doc FROM documents WHERE collection = \$1 AND id = \$2 LIMIT \$3$`).
		WithArgs("body_parts", "missing", int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"doc"}))

	_, err := c.FindOne(context.Background(), store.ByID("missing"))
	assert.Equal(t, common.KindNotFound, common.KindOf(err))
}

func TestCount(t *testing.T) {
	c, mock := newCollectionWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT COUNT\(\*\) FROM documents WHERE collection = \$1 AND TRUE$`).
		WithArgs("body_parts").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(7)))

	n, err := c.Count(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

func TestCreate(t *testing.T) {
	c, mock := newCollectionWithMock(t)

	q := `(?s)^INSERT\s+INTO\s+documents\s*\(collection,\s*id,\s*doc\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3::jsonb\)\s*$`
	mock.ExpectExec(q).
		WithArgs("body_parts", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	p := &models.BodyPart{Name: "Chest"}
	require.NoError(t, c.Create(context.Background(), p))
	assert.NotEmpty(t, p.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_Duplicate(t *testing.T) {
	c, mock := newCollectionWithMock(t)

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+documents`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := c.Create(context.Background(), &models.BodyPart{Name: "Chest"})
	assert.Equal(t, common.KindDuplicateEntry, common.KindOf(err))
}

func TestCreate_DBError(t *testing.T) {
	c, mock := newCollectionWithMock(t)

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+documents`).WillReturnError(errors.New("db down"))

	err := c.Create(context.Background(), &models.BodyPart{Name: "Chest"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: db down")
	assert.Equal(t, common.KindInternal, common.KindOf(err))
}

func TestFindOneAndUpdate(t *testing.T) {
	c, mock := newCollectionWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)^SELECT id FROM documents WHERE collection = \$1 AND id = \$2 LIMIT 1 FOR UPDATE$`).
		WithArgs("body_parts", "1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("1"))
	mock.ExpectQuery(`(?s)^UPDATE\s+documents\s+SET\s+doc\s*=\s*doc\s*\|\|\s*\$3::jsonb\s+WHERE\s+collection\s*=\s*\$1\s+AND\s+id\s*=\s*\$2\s+RETURNING\s+doc\s*$`).
		WithArgs("body_parts", "1", `{"name":"Upper chest"}`).
		WillReturnRows(sqlmock.NewRows([]string{"doc"}).AddRow([]byte(`{"_id": "1", "name": "Upper chest", "order": 3}`)))
	mock.ExpectCommit()

	got, err := c.FindOneAndUpdate(context.Background(), store.ByID("1"), store.Patch{"name": "Upper chest", "_id": "ignored"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Upper chest", got.Name)
	assert.Equal(t, 3, got.Order)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindOneAndUpdate_NoMatch(t *testing.T) {
	c, mock := newCollectionWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)^SELECT id FROM documents`).WillReturnError(sql.ErrNoRows)
	mock.ExpectCommit()

	got, err := c.FindOneAndUpdate(context.Background(), store.ByID("1"), store.Patch{"name": "x"})
	require.NoError(t, err)
	assert.Nil(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindOneAndUpdate_RollsBackOnError(t *testing.T) {
	c, mock := newCollectionWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)^SELECT id FROM documents`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("1"))
	mock.ExpectQuery(`(?s)^UPDATE\s+documents`).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	_, err := c.FindOneAndUpdate(context.Background(), store.ByID("1"), store.Patch{"name": "x"})
	assert.Equal(t, common.KindDuplicateEntry, common.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOne(t *testing.T) {
	c, mock := newCollectionWithMock(t)

	q := `(?s)^DELETE FROM documents WHERE collection = \$1 AND id IN \(SELECT id FROM documents WHERE collection = \$1 AND id = \$2 AND doc->'isCustom' @> \$3::jsonb LIMIT 1\)$`
	mock.ExpectExec(q).WithArgs("body_parts", "1", "true").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("body_parts", "1", "true").WillReturnResult(sqlmock.NewResult(0, 0))

	f := store.ByID("1").And(store.Eq("isCustom", true))
	n, err := c.DeleteOne(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = c.DeleteOne(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestRunMigrations(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var gotDir string
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}
	require.NoError(t, RunMigrations(context.Background(), db))
	assert.Equal(t, ".", gotDir)

	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	assert.ErrorContains(t, RunMigrations(context.Background(), db), "migrate: boom")
}

func TestDial(t *testing.T) {
	origOpen, origUp := sqlOpen, gooseUpContext
	t.Cleanup(func() { sqlOpen, gooseUpContext = origOpen, origUp })

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing()

	var gotDriver string
	sqlOpen = func(driver, dsn string) (*sql.DB, error) {
		gotDriver = driver
		return db, nil
	}
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return nil
	}

	got, err := Dial("postgres://localhost/fitkeeper")(context.Background())
	require.NoError(t, err)
	assert.Same(t, db, got)
	assert.Equal(t, "pgx", gotDriver)
	require.NoError(t, mock.ExpectationsWereMet())
}
