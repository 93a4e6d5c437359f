package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

// MakeupRepository persists makeup session requests.
type MakeupRepository struct {
	db *sqlx.DB
}

// NewMakeupRepository constructs repository.
func NewMakeupRepository(db *sqlx.DB) *MakeupRepository {
	return &MakeupRepository{db: db}
}

// Create inserts a makeup request in pending status.
func (r *MakeupRepository) Create(ctx context.Context, request *models.MakeupRequest) error {
	if request == nil {
		return fmt.Errorf("makeup request payload is nil")
	}
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.Status == "" {
		request.Status = models.MakeupStatusPending
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now().UTC()
	}

	const query = `
INSERT INTO makeup_requests (id, allocation_id, faculty_id, requested_date, start_time, end_time, room_id, reason, original_absence_date, status, admin_note, reviewed_at, created_at)
VALUES (:id, :allocation_id, :faculty_id, :requested_date, :start_time, :end_time, :room_id, :reason, :original_absence_date, :status, :admin_note, :reviewed_at, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, request); err != nil {
		return fmt.Errorf("insert makeup request: %w", err)
	}
	return nil
}

// FindByID loads one makeup request.
func (r *MakeupRepository) FindByID(ctx context.Context, id string) (*models.MakeupRequest, error) {
	const query = `SELECT id, allocation_id, faculty_id, requested_date, start_time, end_time, room_id, reason, original_absence_date, status, admin_note, reviewed_at, created_at
FROM makeup_requests WHERE id = $1`
	var request models.MakeupRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// UpdateReview stores the admin decision. Only pending rows are eligible, so
// approved/rejected stay terminal.
func (r *MakeupRepository) UpdateReview(ctx context.Context, id, status, adminNote string) error {
	const query = `UPDATE makeup_requests SET status = $1, admin_note = $2, reviewed_at = $3
WHERE id = $4 AND status = $5`
	result, err := r.db.ExecContext(ctx, query, status, adminNote, time.Now().UTC(), id, models.MakeupStatusPending)
	if err != nil {
		return fmt.Errorf("review makeup request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("makeup rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListForScheduleWeek returns requests targeting dates inside the week for
// allocations of the schedule.
func (r *MakeupRepository) ListForScheduleWeek(ctx context.Context, scheduleID string, weekStart time.Time) ([]models.MakeupRequest, error) {
	const query = `SELECT m.id, m.allocation_id, m.faculty_id, m.requested_date, m.start_time, m.end_time, m.room_id, m.reason, m.original_absence_date, m.status, m.admin_note, m.reviewed_at, m.created_at
FROM makeup_requests m
JOIN allocations al ON al.id = m.allocation_id
WHERE al.schedule_id = $1 AND m.requested_date >= $2 AND m.requested_date < $3
ORDER BY m.requested_date, m.start_time`
	var requests []models.MakeupRequest
	if err := r.db.SelectContext(ctx, &requests, query, scheduleID, weekStart, weekStart.AddDate(0, 0, 7)); err != nil {
		return nil, fmt.Errorf("list week makeup requests: %w", err)
	}
	return requests, nil
}
