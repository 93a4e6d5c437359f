package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/campus-timetable-api/internal/models"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

const pgUniqueViolation = "23505"

// AbsenceRepository persists faculty absences.
type AbsenceRepository struct {
	db *sqlx.DB
}

// NewAbsenceRepository constructs repository.
func NewAbsenceRepository(db *sqlx.DB) *AbsenceRepository {
	return &AbsenceRepository{db: db}
}

// Create inserts an absence. A second absence for the same allocation and
// date maps the unique violation to ErrDuplicateAbsence.
func (r *AbsenceRepository) Create(ctx context.Context, absence *models.Absence) error {
	if absence == nil {
		return fmt.Errorf("absence payload is nil")
	}
	if absence.ID == "" {
		absence.ID = uuid.NewString()
	}
	if absence.Status == "" {
		absence.Status = models.AbsenceStatusConfirmed
	}
	if absence.CreatedAt.IsZero() {
		absence.CreatedAt = time.Now().UTC()
	}

	const query = `
INSERT INTO absences (id, allocation_id, absence_date, faculty_id, reason, status, created_at)
VALUES (:id, :allocation_id, :absence_date, :faculty_id, :reason, :status, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, absence); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
			return appErrors.ErrDuplicateAbsence
		}
		return fmt.Errorf("insert absence: %w", err)
	}
	return nil
}

// FindByID loads one absence.
func (r *AbsenceRepository) FindByID(ctx context.Context, id string) (*models.Absence, error) {
	const query = `SELECT id, allocation_id, absence_date, faculty_id, reason, status, created_at
FROM absences WHERE id = $1`
	var absence models.Absence
	if err := r.db.GetContext(ctx, &absence, query, id); err != nil {
		return nil, err
	}
	return &absence, nil
}

// ListByScheduleWeek returns absences whose date falls inside [weekStart,
// weekStart+7d) for allocations of the schedule.
func (r *AbsenceRepository) ListByScheduleWeek(ctx context.Context, scheduleID string, weekStart time.Time) ([]models.Absence, error) {
	const query = `SELECT a.id, a.allocation_id, a.absence_date, a.faculty_id, a.reason, a.status, a.created_at
FROM absences a
JOIN allocations al ON al.id = a.allocation_id
WHERE al.schedule_id = $1 AND a.absence_date >= $2 AND a.absence_date < $3
ORDER BY a.absence_date`
	var absences []models.Absence
	if err := r.db.SelectContext(ctx, &absences, query, scheduleID, weekStart, weekStart.AddDate(0, 0, 7)); err != nil {
		return nil, fmt.Errorf("list week absences: %w", err)
	}
	return absences, nil
}

// UpdateStatus moves an absence between confirmed and reviewed.
func (r *AbsenceRepository) UpdateStatus(ctx context.Context, id, status string) error {
	const query = `UPDATE absences SET status = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update absence status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("absence rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
