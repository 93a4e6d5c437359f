package models

import "time"

// Absence statuses.
const (
	AbsenceStatusConfirmed = "confirmed"
	AbsenceStatusReviewed  = "reviewed"
)

// MakeupRequest statuses. Approved and rejected are terminal.
const (
	MakeupStatusPending  = "pending"
	MakeupStatusApproved = "approved"
	MakeupStatusRejected = "rejected"
)

// Override is a week-scoped, non-destructive substitute for an allocation's
// room/day/time. Unique per (schedule, allocation, week start); a second edit
// for the same key replaces the first.
type Override struct {
	ID           string    `db:"id" json:"id"`
	ScheduleID   string    `db:"schedule_id" json:"schedule_id"`
	AllocationID string    `db:"allocation_id" json:"allocation_id"`
	WeekStart    time.Time `db:"week_start" json:"week_start"`
	DayOfWeek    *int      `db:"day_of_week" json:"day_of_week,omitempty"`
	StartTime    *string   `db:"start_time" json:"start_time,omitempty"`
	EndTime      *string   `db:"end_time" json:"end_time,omitempty"`
	RoomID       *string   `db:"room_id" json:"room_id,omitempty"`
	Building     *string   `db:"building" json:"building,omitempty"`
	Note         string    `db:"note" json:"note"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Absence records a faculty absence for one class session date. At most one
// absence may exist per (allocation, date).
type Absence struct {
	ID           string    `db:"id" json:"id"`
	AllocationID string    `db:"allocation_id" json:"allocation_id"`
	AbsenceDate  time.Time `db:"absence_date" json:"absence_date"`
	FacultyID    string    `db:"faculty_id" json:"faculty_id"`
	Reason       string    `db:"reason" json:"reason"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// MakeupRequest asks for a substitute session, optionally referencing the
// absence it compensates. Many requests may reference one absence.
type MakeupRequest struct {
	ID                  string     `db:"id" json:"id"`
	AllocationID        string     `db:"allocation_id" json:"allocation_id"`
	FacultyID           string     `db:"faculty_id" json:"faculty_id"`
	RequestedDate       time.Time  `db:"requested_date" json:"requested_date"`
	StartTime           string     `db:"start_time" json:"start_time"`
	EndTime             string     `db:"end_time" json:"end_time"`
	RoomID              *string    `db:"room_id" json:"room_id,omitempty"`
	Reason              string     `db:"reason" json:"reason"`
	OriginalAbsenceDate *time.Time `db:"original_absence_date" json:"original_absence_date,omitempty"`
	Status              string     `db:"status" json:"status"`
	AdminNote           string     `db:"admin_note" json:"admin_note"`
	ReviewedAt          *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
}
