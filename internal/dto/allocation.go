package dto

import (
	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/scheduler"
)

// PlanRequest asks for a full timetable build. The external optimizer is
// consulted first when enabled; on any failure the fallback allocator runs.
// ScheduleID targets an existing unlocked schedule for an in-place re-plan;
// locked schedules reject the request.
type PlanRequest struct {
	Name         string `json:"name" validate:"required"`
	Semester     string `json:"semester" validate:"required"`
	AcademicYear string `json:"academicYear" validate:"required"`
	Persist      bool   `json:"persist"`
	ScheduleID   string `json:"scheduleId,omitempty"`
}

// AnnealRequest asks the annealing allocator to assign rooms to sections whose
// meeting times are already fixed. Zero-valued tunables fall back to defaults.
type AnnealRequest struct {
	Name                  string  `json:"name" validate:"required"`
	Semester              string  `json:"semester" validate:"required"`
	AcademicYear          string  `json:"academicYear" validate:"required"`
	Persist               bool    `json:"persist"`
	MaxIterations         int     `json:"maxIterations" validate:"omitempty,min=1,max=1000000"`
	InitialTemperature    float64 `json:"initialTemperature" validate:"omitempty,gt=0"`
	CoolingRate           float64 `json:"coolingRate" validate:"omitempty,gt=0,lt=1"`
	TunnelingProbability  float64 `json:"tunnelingProbability" validate:"omitempty,gte=0,lt=1"`
	AccessibilityPriority bool    `json:"accessibilityPriority"`
	Seed                  int64   `json:"seed"`
}

// PlanResponse reports a completed allocator run.
type PlanResponse struct {
	ScheduleID  string                         `json:"scheduleId,omitempty"`
	Strategy    string                         `json:"strategy"`
	Allocations []models.Allocation            `json:"allocations"`
	Unscheduled []scheduler.UnscheduledSection `json:"unscheduled"`
	Stats       scheduler.Stats                `json:"stats"`
	Persisted   bool                           `json:"persisted"`
	PersistNote string                         `json:"persistNote,omitempty"`
}

// ScheduleQuery filters schedule summaries.
type ScheduleQuery struct {
	Semester     string `form:"semester" json:"semester"`
	AcademicYear string `form:"academicYear" json:"academicYear"`
	Page         int    `form:"page" json:"page"`
	PageSize     int    `form:"pageSize" json:"pageSize"`
}
