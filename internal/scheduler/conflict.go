package scheduler

import (
	"fmt"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

// Candidate is a proposed placement to validate against retained allocations.
type Candidate struct {
	RoomID      string
	DayOfWeek   int
	Start       int
	End         int
	TeacherName string
	SectionCode string
}

// ConflictDetail points at the retained allocation a candidate collides with.
type ConflictDetail struct {
	AllocationID string `json:"allocation_id"`
	Description  string `json:"description"`
}

// ConflictReport flags each conflict class independently.
type ConflictReport struct {
	Room    *ConflictDetail `json:"room,omitempty"`
	Teacher *ConflictDetail `json:"teacher,omitempty"`
	Group   *ConflictDetail `json:"group,omitempty"`
}

// HasConflict reports whether any conflict class fired.
func (r ConflictReport) HasConflict() bool {
	return r.Room != nil || r.Teacher != nil || r.Group != nil
}

// Conflicts flattens the report into dimension-tagged entries.
func (r ConflictReport) Conflicts() []models.AllocationConflict {
	var out []models.AllocationConflict
	if r.Room != nil {
		out = append(out, models.AllocationConflict{AllocationID: r.Room.AllocationID, Dimension: models.ConflictDimensionRoom, Description: r.Room.Description})
	}
	if r.Teacher != nil {
		out = append(out, models.AllocationConflict{AllocationID: r.Teacher.AllocationID, Dimension: models.ConflictDimensionTeacher, Description: r.Teacher.Description})
	}
	if r.Group != nil {
		out = append(out, models.AllocationConflict{AllocationID: r.Group.AllocationID, Dimension: models.ConflictDimensionGroup, Description: r.Group.Description})
	}
	return out
}

// Overlaps implements the half-open interval rule: touching endpoints do not
// conflict.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

type indexedAllocation struct {
	alloc models.Allocation
	start int
	end   int
	group string
}

func indexAllocations(allocs []models.Allocation, exclude map[string]struct{}) []indexedAllocation {
	indexed := make([]indexedAllocation, 0, len(allocs))
	for _, a := range allocs {
		if _, skip := exclude[a.ID]; skip {
			continue
		}
		start := ParseClock(a.StartTime)
		end := ParseClock(a.EndTime)
		if start < 0 || end < 0 {
			continue
		}
		indexed = append(indexed, indexedAllocation{
			alloc: a,
			start: start,
			end:   end,
			group: models.StudentGroup(a.SectionCode),
		})
	}
	return indexed
}

func describe(a models.Allocation) string {
	return fmt.Sprintf("%s %s (%s %s-%s)", a.CourseCode, a.SectionCode, DayName(a.DayOfWeek), a.StartTime, a.EndTime)
}

// Check validates a single candidate against every retained allocation on the
// same day. Pure function of its inputs; no side effects.
func Check(allocs []models.Allocation, cand Candidate, exclude map[string]struct{}) ConflictReport {
	return check(indexAllocations(allocs, exclude), cand)
}

func check(indexed []indexedAllocation, cand Candidate) ConflictReport {
	group := models.StudentGroup(cand.SectionCode)

	var report ConflictReport
	for _, other := range indexed {
		if other.alloc.DayOfWeek != cand.DayOfWeek {
			continue
		}
		if !Overlaps(cand.Start, cand.End, other.start, other.end) {
			continue
		}
		if report.Room == nil && cand.RoomID != "" && other.alloc.RoomID != nil && *other.alloc.RoomID == cand.RoomID {
			report.Room = &ConflictDetail{AllocationID: other.alloc.ID, Description: describe(other.alloc)}
		}
		if report.Teacher == nil && cand.TeacherName != "" && other.alloc.TeacherName == cand.TeacherName {
			report.Teacher = &ConflictDetail{AllocationID: other.alloc.ID, Description: describe(other.alloc)}
		}
		if report.Group == nil && group != "" && other.group == group {
			report.Group = &ConflictDetail{AllocationID: other.alloc.ID, Description: describe(other.alloc)}
		}
		if report.Room != nil && report.Teacher != nil && report.Group != nil {
			break
		}
	}
	return report
}

// GridCell keys one (day, slot) cell of the weekly availability grid.
type GridCell struct {
	DayOfWeek int    `json:"day_of_week"`
	SlotID    string `json:"slot_id"`
}

// WeekGrid precomputes a conflict report for every (day, slot) cell of the
// week, as used when a drag operation starts. The candidate's day and time are
// substituted per cell; cost is O(days x slots x allocations) and the result
// is meant to be computed once per drag initiation.
func WeekGrid(allocs []models.Allocation, days []int, grid []models.TimeSlot, cand Candidate, exclude map[string]struct{}) map[GridCell]ConflictReport {
	indexed := indexAllocations(allocs, exclude)
	duration := cand.End - cand.Start

	cells := make(map[GridCell]ConflictReport, len(days)*len(grid))
	for _, day := range days {
		for _, slot := range grid {
			start := ParseClock(slot.StartTime)
			if start < 0 {
				continue
			}
			end := start + duration
			if duration <= 0 {
				end = ParseClock(slot.EndTime)
			}
			probe := cand
			probe.DayOfWeek = day
			probe.Start = start
			probe.End = end
			cells[GridCell{DayOfWeek: day, SlotID: slot.ID}] = check(indexed, probe)
		}
	}
	return cells
}
