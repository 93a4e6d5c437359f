package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-timetable-api/internal/models"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

func TestAbsenceRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAbsenceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO absences")).
		WithArgs(sqlmock.AnyArg(), "alloc-1", sqlmock.AnyArg(), "fac-9", "medical leave", models.AbsenceStatusConfirmed, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	absence := &models.Absence{
		AllocationID: "alloc-1",
		AbsenceDate:  time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC),
		FacultyID:    "fac-9",
		Reason:       "medical leave",
	}
	require.NoError(t, repo.Create(context.Background(), absence))
	assert.NotEmpty(t, absence.ID)
	assert.Equal(t, models.AbsenceStatusConfirmed, absence.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAbsenceRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAbsenceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO absences")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "absences_allocation_id_absence_date_key"})

	err := repo.Create(context.Background(), &models.Absence{
		AllocationID: "alloc-1",
		AbsenceDate:  time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC),
		FacultyID:    "fac-9",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrDuplicateAbsence))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAbsenceRepositoryListByScheduleWeek(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAbsenceRepository(db)

	week := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "allocation_id", "absence_date", "faculty_id", "reason", "status", "created_at"}).
		AddRow("abs-1", "alloc-1", week.AddDate(0, 0, 1), "fac-9", "", models.AbsenceStatusConfirmed, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("JOIN allocations al ON al.id = a.allocation_id")).
		WithArgs("sched-1", week, week.AddDate(0, 0, 7)).
		WillReturnRows(rows)

	absences, err := repo.ListByScheduleWeek(context.Background(), "sched-1", week)
	require.NoError(t, err)
	require.Len(t, absences, 1)
	assert.Equal(t, "abs-1", absences[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
