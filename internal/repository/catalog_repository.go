package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

// CatalogRepository reads the allocator's reference data: rooms, sections and
// the half-hour time grid.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListRooms returns every room.
func (r *CatalogRepository) ListRooms(ctx context.Context) ([]models.Room, error) {
	const query = `SELECT id, campus, building, name, capacity, room_type, floor, accessible, features, college
FROM rooms ORDER BY building, name`
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// ListSections returns every section awaiting placement.
func (r *CatalogRepository) ListSections(ctx context.Context) ([]models.Section, error) {
	const query = `SELECT id, course_code, course_name, section_code, year_level, student_count, lecture_hours, lab_hours, department, college, required_features, teacher_id, teacher_name, day_of_week, start_time, end_time
FROM sections ORDER BY student_count DESC, section_code`
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, query); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// ListTimeSlots returns the time grid ordered by start.
func (r *CatalogRepository) ListTimeSlots(ctx context.Context) ([]models.TimeSlot, error) {
	const query = `SELECT id, start_time, end_time, duration_minutes FROM time_slots ORDER BY start_time`
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query); err != nil {
		return nil, fmt.Errorf("list time slots: %w", err)
	}
	return slots, nil
}
