package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestOverrideRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOverrideRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO overrides")).
		WithArgs(sqlmock.AnyArg(), "sched-1", "alloc-1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "room change", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	roomID := "room-7"
	override := &models.Override{
		ScheduleID:   "sched-1",
		AllocationID: "alloc-1",
		WeekStart:    time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		RoomID:       &roomID,
		Note:         "room change",
	}
	require.NoError(t, repo.Upsert(context.Background(), override))
	assert.NotEmpty(t, override.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOverrideRepositoryUpsertStatementReplacesOnConflict(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOverrideRepository(db)

	// The conflict target is the composite week key, so a second edit for the
	// same allocation and week replaces the first instead of erroring.
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (schedule_id, allocation_id, week_start) DO UPDATE")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Upsert(context.Background(), &models.Override{
		ScheduleID:   "sched-1",
		AllocationID: "alloc-1",
		WeekStart:    time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
	}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOverrideRepositoryListForWeek(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOverrideRepository(db)

	week := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "schedule_id", "allocation_id", "week_start", "day_of_week", "start_time", "end_time", "room_id", "building", "note", "created_at", "updated_at"}).
		AddRow("ovr-1", "sched-1", "alloc-1", week, nil, nil, nil, "room-7", nil, "", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM overrides WHERE schedule_id = $1 AND week_start = $2")).
		WithArgs("sched-1", week).
		WillReturnRows(rows)

	overrides, err := repo.ListForWeek(context.Background(), "sched-1", week)
	require.NoError(t, err)
	require.Len(t, overrides, 1)
	assert.Equal(t, "alloc-1", overrides[0].AllocationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOverrideRepositoryDeleteWeek(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOverrideRepository(db)

	week := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM overrides WHERE schedule_id = $1 AND week_start = $2")).
		WithArgs("sched-1", week).
		WillReturnResult(sqlmock.NewResult(0, 3))

	deleted, err := repo.DeleteWeek(context.Background(), "sched-1", week)
	require.NoError(t, err)
	assert.EqualValues(t, 3, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
