package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

// AllocationRepository persists the meetings produced by an allocator run.
type AllocationRepository struct {
	db *sqlx.DB
}

// NewAllocationRepository constructs repository.
func NewAllocationRepository(db *sqlx.DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

func (r *AllocationRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// BulkCreate inserts all allocations for a schedule, assigning ids to rows
// that carry none.
func (r *AllocationRepository) BulkCreate(ctx context.Context, exec sqlx.ExtContext, scheduleID string, allocations []models.Allocation) error {
	if scheduleID == "" {
		return fmt.Errorf("schedule_id is required")
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO allocations (id, schedule_id, section_id, room_id, day_of_week, start_time, end_time, course_code, course_name, section_code, room_name, building, teacher_name, created_at)
VALUES (:id, :schedule_id, :section_id, :room_id, :day_of_week, :start_time, :end_time, :course_code, :course_name, :section_code, :room_name, :building, :teacher_name, :created_at)`
	for i := range allocations {
		if allocations[i].ID == "" {
			allocations[i].ID = uuid.NewString()
		}
		allocations[i].ScheduleID = scheduleID
		if allocations[i].CreatedAt.IsZero() {
			allocations[i].CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, allocations[i]); err != nil {
			return fmt.Errorf("insert allocation %s: %w", allocations[i].ID, err)
		}
	}
	return nil
}

// DeleteBySchedule removes every allocation of a schedule, clearing the way
// for an in-place re-plan.
func (r *AllocationRepository) DeleteBySchedule(ctx context.Context, exec sqlx.ExtContext, scheduleID string) error {
	if scheduleID == "" {
		return fmt.Errorf("schedule_id is required")
	}
	const query = `DELETE FROM allocations WHERE schedule_id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, scheduleID); err != nil {
		return fmt.Errorf("delete allocations: %w", err)
	}
	return nil
}

// ListBySchedule returns every allocation of a schedule ordered for display.
func (r *AllocationRepository) ListBySchedule(ctx context.Context, scheduleID string) ([]models.Allocation, error) {
	const query = `SELECT id, schedule_id, section_id, room_id, day_of_week, start_time, end_time, course_code, course_name, section_code, room_name, building, teacher_name, created_at
FROM allocations WHERE schedule_id = $1 ORDER BY day_of_week, start_time, section_code`
	var allocations []models.Allocation
	if err := r.db.SelectContext(ctx, &allocations, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	return allocations, nil
}

// FindByID loads one allocation.
func (r *AllocationRepository) FindByID(ctx context.Context, id string) (*models.Allocation, error) {
	const query = `SELECT id, schedule_id, section_id, room_id, day_of_week, start_time, end_time, course_code, course_name, section_code, room_name, building, teacher_name, created_at
FROM allocations WHERE id = $1`
	var allocation models.Allocation
	if err := r.db.GetContext(ctx, &allocation, query, id); err != nil {
		return nil, err
	}
	return &allocation, nil
}
