// Package scheduler contains the timetable allocation engine: a pure conflict
// detector, a simulated-annealing room allocator and a deterministic
// constraint-driven fallback allocator.
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

// Allocator plans room/time assignments for a set of sections. Both allocator
// implementations satisfy it; the caller picks a strategy at call time.
type Allocator interface {
	Plan(ctx context.Context, input PlanInput) (*Outcome, error)
}

// PlanInput bundles the read-only reference data an allocator consumes.
type PlanInput struct {
	Rooms    []models.Room
	Sections []models.Section
	Grid     []models.TimeSlot
}

// Tunables govern the annealing refinement loop.
type Tunables struct {
	MaxIterations         int
	InitialTemperature    float64
	CoolingRate           float64
	TunnelingProbability  float64
	AccessibilityPriority bool
}

// Lunch window modes.
const (
	LunchModeNone  = "none"
	LunchModeFixed = "fixed"
)

// ConstraintConfig drives the fallback allocator.
type ConstraintConfig struct {
	ActiveDays          []int
	OnlineDays          []int
	LunchMode           string
	LunchStart          int
	LunchEnd            int
	StrictRoomTypes     bool
	MaxClassesPerDay    int
	MinCourseDayGap     int
	MaxConsecutiveHours int
	AllowSplitSessions  bool
	NightThreshold      int
	LateStartThreshold  int
}

// Normalize fills unset fields with the documented defaults.
func (c ConstraintConfig) Normalize() ConstraintConfig {
	if len(c.ActiveDays) == 0 {
		c.ActiveDays = []int{1, 2, 3, 4, 5}
	}
	if c.LunchMode == "" {
		c.LunchMode = LunchModeFixed
	}
	if c.LunchMode != LunchModeNone {
		if c.LunchStart == 0 {
			c.LunchStart = 12 * 60
		}
		if c.LunchEnd == 0 {
			c.LunchEnd = 13 * 60
		}
	}
	if c.MaxClassesPerDay <= 0 {
		c.MaxClassesPerDay = 4
	}
	if c.MinCourseDayGap <= 0 {
		c.MinCourseDayGap = 2
	}
	if c.NightThreshold == 0 {
		c.NightThreshold = 19 * 60
	}
	if c.LateStartThreshold == 0 {
		c.LateStartThreshold = 10 * 60
	}
	return c
}

func (c ConstraintConfig) isOnlineDay(day int) bool {
	for _, d := range c.OnlineDays {
		if d == day {
			return true
		}
	}
	return false
}

// Stats summarises an allocator run.
type Stats struct {
	InitialCost      float64       `json:"initial_cost"`
	FinalCost        float64       `json:"final_cost"`
	Iterations       int           `json:"iterations"`
	Improvements     int           `json:"improvements"`
	TunnelingEvents  int           `json:"tunneling_events"`
	Elapsed          time.Duration `json:"elapsed"`
	ScheduledCount   int           `json:"scheduled_count"`
	UnscheduledCount int           `json:"unscheduled_count"`
	SuccessRate      float64       `json:"success_rate"`
}

// UnscheduledSection reports a section the allocator could not fully place.
type UnscheduledSection struct {
	SectionID   string `json:"section_id"`
	SectionCode string `json:"section_code"`
	Reason      string `json:"reason"`
}

// Outcome is the result of a planning run. Partial placement is not an error.
type Outcome struct {
	Allocations []models.Allocation  `json:"allocations"`
	Stats       Stats                `json:"stats"`
	Unscheduled []UnscheduledSection `json:"unscheduled"`
}

// ParseClock converts "HH:MM" into minutes since midnight. Malformed values
// return -1.
func ParseClock(raw string) int {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return -1
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return -1
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return -1
	}
	return h*60 + m
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

var dayNames = map[int]string{
	1: "Monday",
	2: "Tuesday",
	3: "Wednesday",
	4: "Thursday",
	5: "Friday",
	6: "Saturday",
	7: "Sunday",
}

// DayName returns the English weekday name for a 1-based day index.
func DayName(day int) string {
	if name, ok := dayNames[day]; ok {
		return name
	}
	return fmt.Sprintf("Day %d", day)
}
