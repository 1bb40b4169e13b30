package postgres_test

import (
	"context"
	"database/sql"
	"reflect"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquilax/itemboard/database"
	"github.com/aquilax/itemboard/database/postgres"
	"github.com/aquilax/itemboard/item"
)

func TestImplementsDatabase(t *testing.T) {
	inter := reflect.TypeOf((*database.Database)(nil)).Elem()

	if !reflect.TypeOf(postgres.New()).Implements(inter) {
		t.Errorf("Postgres does not implement the database interface")
	}
}

func newMock(t *testing.T) (*postgres.Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return postgres.NewWithDB(sqlx.NewDb(db, "postgres")), mock
}

func TestPostgres_GetItem(t *testing.T) {
	repo, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM item WHERE id = $1")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "path", "text"}).AddRow(7, "1.7", "hello"))
	got, err := repo.GetItem(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Text)
	assert.Equal(t, "1.7", got.Path)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM item WHERE id = $1")).
		WithArgs(int64(8)).
		WillReturnError(sql.ErrNoRows)
	_, err = repo.GetItem(ctx, 8)
	assert.ErrorIs(t, err, database.ErrNotFound)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM item WHERE id = $1")).
		WithArgs(int64(9)).
		WillReturnError(sql.ErrConnDone)
	_, err = repo.GetItem(ctx, 9)
	assert.ErrorIs(t, err, sql.ErrConnDone)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateItem(t *testing.T) {
	now := time.Date(2024, time.February, 18, 12, 0, 0, 0, time.UTC)
	fields := item.Fields{
		item.ColDeletedAt: now,
		item.ColText:      "*deleted by author*",
		item.ColURL:       nil,
		item.ColPollCost:  nil,
	}
	query := regexp.QuoteMeta("UPDATE item SET deleted_at = $1, poll_cost = $2, text = $3, url = $4 WHERE id = $5 RETURNING *")

	testCases := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		wantErr   error
	}{
		{
			name: "updates and returns the row",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(query).
					WithArgs(now, nil, "*deleted by author*", nil, int64(3)).
					WillReturnRows(sqlmock.NewRows([]string{"id", "text", "deleted_at"}).AddRow(3, "*deleted by author*", now))
			},
		},
		{
			name: "missing row is not found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(query).
					WithArgs(now, nil, "*deleted by author*", nil, int64(3)).
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
			},
			wantErr: database.ErrNotFound,
		},
		{
			name: "database error is propagated",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(query).
					WithArgs(now, nil, "*deleted by author*", nil, int64(3)).
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: sql.ErrConnDone,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock := newMock(t)
			tc.setupMock(mock)

			got, err := repo.UpdateItem(context.Background(), 3, fields)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "*deleted by author*", got.Text)
				require.NotNil(t, got.DeletedAt)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgres_UpdateItemRejectsUnknownColumn(t *testing.T) {
	repo, mock := newMock(t)
	_, err := repo.UpdateItem(context.Background(), 1, item.Fields{"id = 1; --": 1})
	assert.ErrorIs(t, err, database.ErrBadField)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_AddItem(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Date(2024, time.February, 18, 12, 0, 0, 0, time.UTC)
	parent := item.ID(4)
	n := &item.Item{ParentID: &parent, Text: "reply", CreatedAt: now, UpdatedAt: now}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT path FROM item WHERE id = $1")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"path"}).AddRow("1.4"))
	mock.ExpectQuery("INSERT INTO item").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE item SET path = $1 WHERE id = $2")).
		WithArgs("1.4.9", int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := repo.AddItem(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, item.ID(9), id)
	assert.Equal(t, "1.4.9", n.Path)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetChildItemsHot(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Date(2024, time.February, 18, 12, 0, 0, 0, time.UTC)
	parent := item.ID(1)

	mock.ExpectQuery(`ORDER BY \(score \+ 1\) / POWER`).
		WithArgs(int64(1), 20, 0, now).
		WillReturnRows(sqlmock.NewRows([]string{"id", "text"}).AddRow(2, "a").AddRow(3, "b"))

	nl, err := repo.GetChildItems(context.Background(), &parent, item.SortHot, 20, 0, now)
	require.NoError(t, err)
	assert.Len(t, *nl, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_BumpVote(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Date(2024, time.February, 18, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE item SET score").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.BumpVote(context.Background(), 5, 1, now), database.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
