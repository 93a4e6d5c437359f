package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

// OverrideRepository persists week-scoped allocation overrides.
type OverrideRepository struct {
	db *sqlx.DB
}

// NewOverrideRepository constructs repository.
func NewOverrideRepository(db *sqlx.DB) *OverrideRepository {
	return &OverrideRepository{db: db}
}

// Upsert inserts an override or replaces the existing one for the same
// (schedule, allocation, week) key. The second edit wins wholesale.
func (r *OverrideRepository) Upsert(ctx context.Context, override *models.Override) error {
	if override == nil {
		return fmt.Errorf("override payload is nil")
	}
	if override.ID == "" {
		override.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if override.CreatedAt.IsZero() {
		override.CreatedAt = now
	}
	override.UpdatedAt = now

	const query = `
INSERT INTO overrides (id, schedule_id, allocation_id, week_start, day_of_week, start_time, end_time, room_id, building, note, created_at, updated_at)
VALUES (:id, :schedule_id, :allocation_id, :week_start, :day_of_week, :start_time, :end_time, :room_id, :building, :note, :created_at, :updated_at)
ON CONFLICT (schedule_id, allocation_id, week_start) DO UPDATE SET
    day_of_week = EXCLUDED.day_of_week,
    start_time = EXCLUDED.start_time,
    end_time = EXCLUDED.end_time,
    room_id = EXCLUDED.room_id,
    building = EXCLUDED.building,
    note = EXCLUDED.note,
    updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, override); err != nil {
		return fmt.Errorf("upsert override: %w", err)
	}
	return nil
}

// ListForWeek returns every override of a schedule week.
func (r *OverrideRepository) ListForWeek(ctx context.Context, scheduleID string, weekStart time.Time) ([]models.Override, error) {
	const query = `SELECT id, schedule_id, allocation_id, week_start, day_of_week, start_time, end_time, room_id, building, note, created_at, updated_at
FROM overrides WHERE schedule_id = $1 AND week_start = $2`
	var overrides []models.Override
	if err := r.db.SelectContext(ctx, &overrides, query, scheduleID, weekStart); err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	return overrides, nil
}

// DeleteWeek removes every override of a schedule week. Absences and makeup
// requests are historical records and are never touched here.
func (r *OverrideRepository) DeleteWeek(ctx context.Context, scheduleID string, weekStart time.Time) (int64, error) {
	const query = `DELETE FROM overrides WHERE schedule_id = $1 AND week_start = $2`
	result, err := r.db.ExecContext(ctx, query, scheduleID, weekStart)
	if err != nil {
		return 0, fmt.Errorf("delete week overrides: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("override rows affected: %w", err)
	}
	return affected, nil
}
