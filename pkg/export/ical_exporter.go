// Package export renders schedule views into interchange formats.
package export

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/scheduler"
)

// WeekCalendar renders a rendered schedule week as an iCalendar (RFC 5545)
// feed. Events carry concrete dates derived from the week's Monday, so the
// feed reflects that week's overrides and makeup sessions, not the base
// template.
func WeekCalendar(week *dto.RenderedWeek) (string, error) {
	weekStart, err := time.Parse("2006-01-02", week.WeekStart)
	if err != nil {
		return "", fmt.Errorf("parse week start: %w", err)
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//campus-timetable-api//week-feed//EN")
	cal.SetName("Week of " + week.WeekStart)

	for _, allocation := range week.Allocations {
		if allocation.Absence != nil {
			continue
		}
		addEvent(cal, weekStart, eventInput{
			uid:      fmt.Sprintf("%s-%s@campus-timetable", allocation.AllocationID, week.WeekStart),
			summary:  allocation.CourseCode + " " + allocation.SectionCode,
			day:      allocation.DayOfWeek,
			start:    allocation.StartTime,
			end:      allocation.EndTime,
			location: locationLabel(allocation),
			notes:    describeAllocation(allocation),
		})
	}
	for _, makeup := range week.Makeups {
		addEvent(cal, weekStart, eventInput{
			uid:      fmt.Sprintf("makeup-%s-%s@campus-timetable", makeup.AllocationID, makeup.StartTime),
			summary:  "Makeup: " + makeup.CourseCode,
			day:      makeup.DayOfWeek,
			start:    makeup.StartTime,
			end:      makeup.EndTime,
			location: locationLabel(makeup),
			notes:    "Substitute session",
		})
	}

	return cal.Serialize(), nil
}

type eventInput struct {
	uid      string
	summary  string
	day      int
	start    string
	end      string
	location string
	notes    string
}

func addEvent(cal *ics.Calendar, weekStart time.Time, in eventInput) {
	startMinutes := scheduler.ParseClock(in.start)
	endMinutes := scheduler.ParseClock(in.end)
	if startMinutes < 0 || endMinutes <= startMinutes || in.day < 1 || in.day > 7 {
		return
	}
	date := weekStart.AddDate(0, 0, in.day-1)

	event := cal.AddEvent(in.uid)
	event.SetDtStampTime(time.Now().UTC())
	event.SetStartAt(date.Add(time.Duration(startMinutes) * time.Minute))
	event.SetEndAt(date.Add(time.Duration(endMinutes) * time.Minute))
	event.SetSummary(in.summary)
	if in.location != "" {
		event.SetLocation(in.location)
	}
	if in.notes != "" {
		event.SetDescription(in.notes)
	}
}

func locationLabel(allocation dto.RenderedAllocation) string {
	switch {
	case allocation.RoomName != "" && allocation.Building != "":
		return allocation.RoomName + ", " + allocation.Building
	case allocation.RoomName != "":
		return allocation.RoomName
	case allocation.RoomID != nil:
		return *allocation.RoomID
	default:
		return "Online"
	}
}

func describeAllocation(allocation dto.RenderedAllocation) string {
	notes := allocation.CourseName
	if allocation.TeacherName != "" {
		notes += " with " + allocation.TeacherName
	}
	if allocation.Overridden {
		notes += " (adjusted this week"
		if allocation.OverrideNote != "" {
			notes += ": " + allocation.OverrideNote
		}
		notes += ")"
	}
	return notes
}
