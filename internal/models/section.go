package models

import (
	"strings"

	"github.com/lib/pq"
)

// Section code suffixes distinguishing split lecture/lab offerings of one cohort.
const (
	SectionSuffixLecture = "_LEC"
	SectionSuffixLab     = "_LAB"
)

// Section is one course offering per term. DayOfWeek/StartTime/EndTime are set
// when the meeting time is fixed upstream and only a room is to be assigned.
type Section struct {
	ID               string         `db:"id" json:"id"`
	CourseCode       string         `db:"course_code" json:"course_code"`
	CourseName       string         `db:"course_name" json:"course_name"`
	SectionCode      string         `db:"section_code" json:"section_code"`
	YearLevel        int            `db:"year_level" json:"year_level"`
	StudentCount     int            `db:"student_count" json:"student_count"`
	LectureHours     float64        `db:"lecture_hours" json:"lecture_hours"`
	LabHours         float64        `db:"lab_hours" json:"lab_hours"`
	Department       string         `db:"department" json:"department"`
	College          string         `db:"college" json:"college"`
	RequiredFeatures pq.StringArray `db:"required_features" json:"required_features"`
	TeacherID        string         `db:"teacher_id" json:"teacher_id"`
	TeacherName      string         `db:"teacher_name" json:"teacher_name"`
	DayOfWeek        *int           `db:"day_of_week" json:"day_of_week,omitempty"`
	StartTime        *string        `db:"start_time" json:"start_time,omitempty"`
	EndTime          *string        `db:"end_time" json:"end_time,omitempty"`
}

// StudentGroup derives the cohort key from a section code by stripping any
// trailing lab/lecture suffix. One cohort must never have two overlapping
// sessions regardless of suffix.
func StudentGroup(sectionCode string) string {
	code := strings.TrimSuffix(sectionCode, SectionSuffixLecture)
	return strings.TrimSuffix(code, SectionSuffixLab)
}

// IsLab reports whether the section is the laboratory half of an offering.
func (s Section) IsLab() bool {
	return strings.HasSuffix(s.SectionCode, SectionSuffixLab)
}

// WeeklyHours returns the contact hours this section must be placed for.
func (s Section) WeeklyHours() float64 {
	if s.IsLab() && s.LabHours > 0 {
		return s.LabHours
	}
	if s.LectureHours > 0 {
		return s.LectureHours
	}
	return s.LabHours
}
