package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Schedule is a persisted allocator run. Once locked it is frozen against
// allocator writes; only the weekly overlay may adjust the rendered view.
type Schedule struct {
	ID               string         `db:"id" json:"id"`
	Name             string         `db:"name" json:"name"`
	Semester         string         `db:"semester" json:"semester"`
	AcademicYear     string         `db:"academic_year" json:"academic_year"`
	IsLocked         bool           `db:"is_locked" json:"is_locked"`
	IsCurrent        bool           `db:"is_current" json:"is_current"`
	ScheduledCount   int            `db:"scheduled_count" json:"scheduled_count"`
	UnscheduledCount int            `db:"unscheduled_count" json:"unscheduled_count"`
	Stats            types.JSONText `db:"stats" json:"stats"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// Allocation assigns one section meeting to a room, day and time range.
// RoomID is nil for online sessions. Course/room/teacher labels are
// denormalized for display.
type Allocation struct {
	ID          string    `db:"id" json:"id"`
	ScheduleID  string    `db:"schedule_id" json:"schedule_id"`
	SectionID   string    `db:"section_id" json:"section_id"`
	RoomID      *string   `db:"room_id" json:"room_id,omitempty"`
	DayOfWeek   int       `db:"day_of_week" json:"day_of_week"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	CourseCode  string    `db:"course_code" json:"course_code"`
	CourseName  string    `db:"course_name" json:"course_name"`
	SectionCode string    `db:"section_code" json:"section_code"`
	RoomName    string    `db:"room_name" json:"room_name"`
	Building    string    `db:"building" json:"building"`
	TeacherName string    `db:"teacher_name" json:"teacher_name"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Conflict dimensions reported by the detector.
const (
	ConflictDimensionRoom    = "ROOM"
	ConflictDimensionTeacher = "TEACHER"
	ConflictDimensionGroup   = "STUDENT_GROUP"
)

// AllocationConflict describes an existing allocation that collides with a
// candidate placement on one dimension.
type AllocationConflict struct {
	AllocationID string `json:"allocation_id"`
	Dimension    string `json:"dimension"`
	Description  string `json:"description"`
}

// AllocationConflictError is returned when a proposed placement collides with
// retained allocations.
type AllocationConflictError struct {
	Message   string               `json:"message"`
	Conflicts []AllocationConflict `json:"conflicts"`
}

// Error implements the error interface for conflict errors.
func (e *AllocationConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
