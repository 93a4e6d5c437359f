package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

func strPtr(s string) *string { return &s }

func baseAllocations() []models.Allocation {
	return []models.Allocation{
		{
			ID:          "alloc-1",
			RoomID:      strPtr("room-101"),
			DayOfWeek:   1,
			StartTime:   "08:00",
			EndTime:     "09:30",
			CourseCode:  "CS101",
			SectionCode: "BSCS-1A_LEC",
			TeacherName: "Reyes",
		},
		{
			ID:          "alloc-2",
			RoomID:      strPtr("room-202"),
			DayOfWeek:   1,
			StartTime:   "10:00",
			EndTime:     "11:30",
			CourseCode:  "MATH201",
			SectionCode: "BSCS-2B",
			TeacherName: "Santos",
		},
	}
}

func TestOverlapsHalfOpen(t *testing.T) {
	assert.True(t, Overlaps(480, 570, 540, 600))
	assert.True(t, Overlaps(540, 600, 480, 570))
	// Touching endpoints do not conflict.
	assert.False(t, Overlaps(480, 540, 540, 600))
	assert.False(t, Overlaps(540, 600, 480, 540))
	assert.False(t, Overlaps(480, 540, 600, 660))
}

func TestCheckRoomConflict(t *testing.T) {
	report := Check(baseAllocations(), Candidate{
		RoomID:      "room-101",
		DayOfWeek:   1,
		Start:       ParseClock("09:00"),
		End:         ParseClock("10:00"),
		TeacherName: "Cruz",
		SectionCode: "BSIT-3C",
	}, nil)

	require.True(t, report.HasConflict())
	require.NotNil(t, report.Room)
	assert.Equal(t, "alloc-1", report.Room.AllocationID)
	assert.Contains(t, report.Room.Description, "CS101")
	assert.Nil(t, report.Teacher)
	assert.Nil(t, report.Group)
}

func TestCheckTeacherConflictAcrossRooms(t *testing.T) {
	report := Check(baseAllocations(), Candidate{
		RoomID:      "room-303",
		DayOfWeek:   1,
		Start:       ParseClock("08:30"),
		End:         ParseClock("09:00"),
		TeacherName: "Reyes",
		SectionCode: "BSIT-3C",
	}, nil)

	require.NotNil(t, report.Teacher)
	assert.Equal(t, "alloc-1", report.Teacher.AllocationID)
	assert.Nil(t, report.Room)
}

func TestCheckStudentGroupStripsSuffix(t *testing.T) {
	// BSCS-1A_LAB and BSCS-1A_LEC are the same cohort.
	report := Check(baseAllocations(), Candidate{
		RoomID:      "room-404",
		DayOfWeek:   1,
		Start:       ParseClock("08:00"),
		End:         ParseClock("08:30"),
		TeacherName: "Cruz",
		SectionCode: "BSCS-1A_LAB",
	}, nil)

	require.NotNil(t, report.Group)
	assert.Equal(t, "alloc-1", report.Group.AllocationID)
}

func TestCheckDifferentDayNoConflict(t *testing.T) {
	report := Check(baseAllocations(), Candidate{
		RoomID:      "room-101",
		DayOfWeek:   2,
		Start:       ParseClock("08:00"),
		End:         ParseClock("09:30"),
		TeacherName: "Reyes",
		SectionCode: "BSCS-1A_LEC",
	}, nil)
	assert.False(t, report.HasConflict())
}

func TestCheckTouchingEndpointsNoConflict(t *testing.T) {
	report := Check(baseAllocations(), Candidate{
		RoomID:      "room-101",
		DayOfWeek:   1,
		Start:       ParseClock("09:30"),
		End:         ParseClock("10:30"),
		TeacherName: "Reyes",
		SectionCode: "BSCS-1A_LEC",
	}, nil)
	assert.False(t, report.HasConflict())
}

func TestCheckExcludesAllocations(t *testing.T) {
	report := Check(baseAllocations(), Candidate{
		RoomID:      "room-101",
		DayOfWeek:   1,
		Start:       ParseClock("08:00"),
		End:         ParseClock("09:00"),
		TeacherName: "Reyes",
		SectionCode: "BSCS-1A_LEC",
	}, map[string]struct{}{"alloc-1": {}})
	assert.False(t, report.HasConflict(), "the excluded allocation must not be compared")
}

func TestCheckReportsAllDimensions(t *testing.T) {
	report := Check(baseAllocations(), Candidate{
		RoomID:      "room-101",
		DayOfWeek:   1,
		Start:       ParseClock("08:00"),
		End:         ParseClock("09:00"),
		TeacherName: "Reyes",
		SectionCode: "BSCS-1A_LAB",
	}, nil)

	require.True(t, report.HasConflict())
	assert.NotNil(t, report.Room)
	assert.NotNil(t, report.Teacher)
	assert.NotNil(t, report.Group)
	assert.Len(t, report.Conflicts(), 3)
}

func TestWeekGridMarksBusyCells(t *testing.T) {
	grid := []models.TimeSlot{
		{ID: "s1", StartTime: "08:00", EndTime: "08:30", DurationMinutes: 30},
		{ID: "s2", StartTime: "08:30", EndTime: "09:00", DurationMinutes: 30},
		{ID: "s3", StartTime: "09:30", EndTime: "10:00", DurationMinutes: 30},
	}

	cells := WeekGrid(baseAllocations(), []int{1, 2}, grid, Candidate{
		RoomID:      "room-101",
		SectionCode: "BSIT-3C",
		Start:       ParseClock("08:00"),
		End:         ParseClock("08:30"),
	}, nil)

	require.Len(t, cells, 6)
	assert.True(t, cells[GridCell{DayOfWeek: 1, SlotID: "s1"}].HasConflict())
	assert.True(t, cells[GridCell{DayOfWeek: 1, SlotID: "s2"}].HasConflict())
	// 09:30 starts exactly when alloc-1 ends.
	assert.False(t, cells[GridCell{DayOfWeek: 1, SlotID: "s3"}].HasConflict())
	assert.False(t, cells[GridCell{DayOfWeek: 2, SlotID: "s1"}].HasConflict())
}

func TestParseClock(t *testing.T) {
	assert.Equal(t, 480, ParseClock("08:00"))
	assert.Equal(t, 1170, ParseClock("19:30"))
	assert.Equal(t, -1, ParseClock("25:00"))
	assert.Equal(t, -1, ParseClock("nonsense"))
	assert.Equal(t, "08:00", FormatClock(480))
}
