package dto

import "github.com/noah-isme/campus-timetable-api/internal/models"

// MarkAbsenceRequest records a faculty absence for one session date.
type MarkAbsenceRequest struct {
	AllocationID string `json:"allocationId" validate:"required"`
	AbsenceDate  string `json:"absenceDate" validate:"required,datetime=2006-01-02"`
	FacultyID    string `json:"facultyId" validate:"required"`
	Reason       string `json:"reason"`
}

// MakeupRequestCreate asks for a substitute session.
type MakeupRequestCreate struct {
	AllocationID        string  `json:"allocationId" validate:"required"`
	FacultyID           string  `json:"facultyId" validate:"required"`
	RequestedDate       string  `json:"requestedDate" validate:"required,datetime=2006-01-02"`
	StartTime           string  `json:"startTime" validate:"required"`
	EndTime             string  `json:"endTime" validate:"required"`
	RoomID              *string `json:"roomId,omitempty"`
	Reason              string  `json:"reason"`
	OriginalAbsenceDate *string `json:"originalAbsenceDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// ReviewMakeupRequest carries the admin decision on a pending makeup request.
// Force approves even when the conflict detector objects.
type ReviewMakeupRequest struct {
	Status    string `json:"status" validate:"required,oneof=approved rejected"`
	AdminNote string `json:"adminNote"`
	Force     bool   `json:"force"`
}

// ReviewAbsenceRequest marks an absence as reviewed.
type ReviewAbsenceRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed reviewed"`
}

// OverrideRequest upserts a week-scoped substitute for one allocation. Omitted
// fields keep the base allocation's values.
type OverrideRequest struct {
	AllocationID string  `json:"allocationId" validate:"required"`
	WeekStart    string  `json:"weekStart" validate:"required,datetime=2006-01-02"`
	DayOfWeek    *int    `json:"dayOfWeek,omitempty" validate:"omitempty,min=1,max=7"`
	StartTime    *string `json:"startTime,omitempty"`
	EndTime      *string `json:"endTime,omitempty"`
	RoomID       *string `json:"roomId,omitempty"`
	Building     *string `json:"building,omitempty"`
	Note         string  `json:"note"`
}

// RenderedAllocation is one cell of the live weekly view: the locked base
// allocation with any override applied and absence/makeup markers attached.
type RenderedAllocation struct {
	AllocationID string                `json:"allocationId"`
	SectionID    string                `json:"sectionId"`
	CourseCode   string                `json:"courseCode"`
	CourseName   string                `json:"courseName"`
	SectionCode  string                `json:"sectionCode"`
	TeacherName  string                `json:"teacherName"`
	RoomID       *string               `json:"roomId,omitempty"`
	RoomName     string                `json:"roomName"`
	Building     string                `json:"building"`
	DayOfWeek    int                   `json:"dayOfWeek"`
	StartTime    string                `json:"startTime"`
	EndTime      string                `json:"endTime"`
	Overridden   bool                  `json:"overridden"`
	OverrideNote string                `json:"overrideNote,omitempty"`
	Absence      *models.Absence       `json:"absence,omitempty"`
	Makeup       *models.MakeupRequest `json:"makeup,omitempty"`
}

// RenderedWeek is the full overlay view for one schedule week.
type RenderedWeek struct {
	ScheduleID  string               `json:"scheduleId"`
	WeekStart   string               `json:"weekStart"`
	Allocations []RenderedAllocation `json:"allocations"`
	Makeups     []RenderedAllocation `json:"makeups,omitempty"`
	FromCache   bool                 `json:"fromCache"`
}

// AvailabilityQuery bounds the free/busy grid probe.
type AvailabilityQuery struct {
	RoomID      string `form:"roomId" json:"roomId"`
	TeacherName string `form:"teacherName" json:"teacherName"`
	SectionCode string `form:"sectionCode" json:"sectionCode"`
	Duration    int    `form:"duration" json:"duration"`
}

// AvailabilityCell is one free/busy verdict for a (day, slot) pair.
type AvailabilityCell struct {
	DayOfWeek int      `json:"dayOfWeek"`
	SlotID    string   `json:"slotId"`
	StartTime string   `json:"startTime"`
	Free      bool     `json:"free"`
	Reasons   []string `json:"reasons,omitempty"`
}
