package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

func TestScheduleRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedules")).
		WithArgs(sqlmock.AnyArg(), "AY 2026 Sem 1", "1", "2026-2027", false, false, 42, 3, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	schedule := &models.Schedule{
		Name:             "AY 2026 Sem 1",
		Semester:         "1",
		AcademicYear:     "2026-2027",
		ScheduledCount:   42,
		UnscheduledCount: 3,
		Stats:            types.JSONText(`{"success_rate":0.93}`),
	}
	require.NoError(t, repo.Create(context.Background(), nil, schedule))
	assert.NotEmpty(t, schedule.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositorySetCurrentFlipsAllRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	// One statement both promotes the target and demotes every other row, so
	// the partial unique index on is_current can never trip mid-flight.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedules SET is_current = (id = $1)")).
		WithArgs("sched-2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 4))

	require.NoError(t, repo.SetCurrent(context.Background(), nil, "sched-2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryUpdateLockedMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedules SET is_locked")).
		WithArgs(true, sqlmock.AnyArg(), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateLocked(context.Background(), nil, "missing", true)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "semester", "academic_year", "is_locked", "is_current", "scheduled_count", "unscheduled_count", "stats", "created_at", "updated_at"}).
		AddRow("sched-1", "AY 2026 Sem 1", "1", "2026-2027", true, true, 40, 2, types.JSONText(`{}`), time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM schedules WHERE id = $1")).
		WithArgs("sched-1").
		WillReturnRows(rows)

	schedule, err := repo.FindByID(context.Background(), "sched-1")
	require.NoError(t, err)
	assert.True(t, schedule.IsLocked)
	assert.True(t, schedule.IsCurrent)
	assert.NoError(t, mock.ExpectationsWereMet())
}
