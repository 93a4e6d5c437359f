package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

// ScheduleRepository persists allocator runs and their lock/current flags.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a schedule row.
func (r *ScheduleRepository) Create(ctx context.Context, exec sqlx.ExtContext, schedule *models.Schedule) error {
	if schedule == nil {
		return fmt.Errorf("schedule payload is nil")
	}
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	if len(schedule.Stats) == 0 {
		schedule.Stats = types.JSONText(`{}`)
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	const query = `
INSERT INTO schedules (id, name, semester, academic_year, is_locked, is_current, scheduled_count, unscheduled_count, stats, created_at, updated_at)
VALUES (:id, :name, :semester, :academic_year, :is_locked, :is_current, :scheduled_count, :unscheduled_count, :stats, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, schedule); err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

// FindByID loads a schedule by its identifier.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	const query = `SELECT id, name, semester, academic_year, is_locked, is_current, scheduled_count, unscheduled_count, stats, created_at, updated_at
FROM schedules WHERE id = $1`
	var schedule models.Schedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// FindCurrent loads the schedule flagged current, if any.
func (r *ScheduleRepository) FindCurrent(ctx context.Context) (*models.Schedule, error) {
	const query = `SELECT id, name, semester, academic_year, is_locked, is_current, scheduled_count, unscheduled_count, stats, created_at, updated_at
FROM schedules WHERE is_current LIMIT 1`
	var schedule models.Schedule
	if err := r.db.GetContext(ctx, &schedule, query); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// List returns schedule summaries filtered by semester/year, newest first.
func (r *ScheduleRepository) List(ctx context.Context, semester, academicYear string, page models.Pagination) ([]models.Schedule, error) {
	query := `SELECT id, name, semester, academic_year, is_locked, is_current, scheduled_count, unscheduled_count, stats, created_at, updated_at
FROM schedules WHERE 1=1`
	args := []interface{}{}
	if semester != "" {
		args = append(args, semester)
		query += fmt.Sprintf(" AND semester = $%d", len(args))
	}
	if academicYear != "" {
		args = append(args, academicYear)
		query += fmt.Sprintf(" AND academic_year = $%d", len(args))
	}
	args = append(args, page.Limit(), page.Offset())
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return schedules, nil
}

// UpdateLocked flips the lock flag. Locking is one-way in practice but the
// repository stays symmetric; the service decides the policy.
func (r *ScheduleRepository) UpdateLocked(ctx context.Context, exec sqlx.ExtContext, id string, locked bool) error {
	const query = `UPDATE schedules SET is_locked = $1, updated_at = $2 WHERE id = $3`
	result, err := r.exec(exec).ExecContext(ctx, query, locked, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update schedule lock: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("schedule rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetCurrent flags one schedule current and clears the flag everywhere else in
// a single statement, preserving the partial unique index invariant.
func (r *ScheduleRepository) SetCurrent(ctx context.Context, exec sqlx.ExtContext, id string) error {
	const query = `UPDATE schedules SET is_current = (id = $1), updated_at = $2`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("set current schedule: %w", err)
	}
	return nil
}

// UpdateCounts refreshes the scheduled/unscheduled counters and stats blob.
func (r *ScheduleRepository) UpdateCounts(ctx context.Context, exec sqlx.ExtContext, id string, scheduled, unscheduled int, stats types.JSONText) error {
	if len(stats) == 0 {
		stats = types.JSONText(`{}`)
	}
	const query = `UPDATE schedules SET scheduled_count = $1, unscheduled_count = $2, stats = $3, updated_at = $4 WHERE id = $5`
	if _, err := r.exec(exec).ExecContext(ctx, query, scheduled, unscheduled, stats, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update schedule counts: %w", err)
	}
	return nil
}
