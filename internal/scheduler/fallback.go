package scheduler

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

// FallbackAllocator is the deterministic constraint-driven allocator used
// whenever the external optimizing service cannot be reached. Unlike the
// annealing allocator it chooses both rooms and time slots. It must always
// produce some schedule, even a partial one.
type FallbackAllocator struct {
	cfg    ConstraintConfig
	logger *zap.Logger
}

// NewFallbackAllocator builds the allocator with a normalized configuration.
func NewFallbackAllocator(cfg ConstraintConfig, logger *zap.Logger) *FallbackAllocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackAllocator{cfg: cfg.Normalize(), logger: logger}
}

type gridSlot struct {
	id    string
	start int
	end   int
}

type dayCell struct {
	day  int
	slot int
}

type interval struct {
	start int
	end   int
}

type fallbackPlacement struct {
	allocIdx  int
	group     string
	course    string
	teacher   string
	day       int
	firstSlot int
	slotCount int
	roomID    string
	start     int
	end       int
}

type fallbackRun struct {
	cfg   ConstraintConfig
	grid  []gridSlot
	rooms []models.Room

	roomBusy    map[string]map[dayCell]bool
	teacherBusy map[string]map[dayCell]bool
	groupBusy   map[string]map[dayCell]bool

	groupDayCount    map[string]map[int]int
	courseDays       map[string]map[int]bool
	groupLatestEnd   map[string]map[int]int
	groupEarliest    map[string]map[int]int
	groupIntervals   map[string]map[int][]interval
	groupPlacements  map[string][]int
	allocations      []models.Allocation
	placements       []fallbackPlacement
}

// Plan schedules every section, largest student count first, and runs a
// consolidation pass before reporting. Partial completion is a success.
func (f *FallbackAllocator) Plan(ctx context.Context, input PlanInput) (*Outcome, error) {
	started := time.Now()

	run := &fallbackRun{
		cfg:             f.cfg,
		grid:            parseGrid(input.Grid),
		rooms:           input.Rooms,
		roomBusy:        make(map[string]map[dayCell]bool),
		teacherBusy:     make(map[string]map[dayCell]bool),
		groupBusy:       make(map[string]map[dayCell]bool),
		groupDayCount:   make(map[string]map[int]int),
		courseDays:      make(map[string]map[int]bool),
		groupLatestEnd:  make(map[string]map[int]int),
		groupEarliest:   make(map[string]map[int]int),
		groupIntervals:  make(map[string]map[int][]interval),
		groupPlacements: make(map[string][]int),
	}

	sections := make([]models.Section, len(input.Sections))
	copy(sections, input.Sections)
	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].StudentCount > sections[j].StudentCount
	})

	var unscheduled []UnscheduledSection
	scheduled := 0
	for _, section := range sections {
		if ctx.Err() != nil {
			break
		}
		required := requiredUnits(section.WeeklyHours())
		placed := run.scheduleSection(section, required)
		if placed < required {
			unscheduled = append(unscheduled, UnscheduledSection{
				SectionID:   section.ID,
				SectionCode: section.SectionCode,
				Reason:      fmt.Sprintf("placed %d of %d half-slot units; no remaining weekday satisfies the constraints", placed, required),
			})
			continue
		}
		scheduled++
	}

	run.consolidate()

	stats := Stats{
		Elapsed:          time.Since(started),
		ScheduledCount:   scheduled,
		UnscheduledCount: len(unscheduled),
	}
	if total := len(sections); total > 0 {
		stats.SuccessRate = float64(scheduled) / float64(total)
	}

	f.logger.Info("fallback allocation finished",
		zap.Int("scheduled", stats.ScheduledCount),
		zap.Int("unscheduled", stats.UnscheduledCount),
		zap.Float64("success_rate", stats.SuccessRate),
		zap.Duration("elapsed", stats.Elapsed),
	)

	return &Outcome{Allocations: run.allocations, Stats: stats, Unscheduled: unscheduled}, nil
}

// requiredUnits converts weekly contact hours into half-slot units, never
// below one full session.
func requiredUnits(weeklyHours float64) int {
	units := int(math.Round(weeklyHours * 2))
	if units < 2 {
		units = 2
	}
	return units
}

func parseGrid(slots []models.TimeSlot) []gridSlot {
	parsed := make([]gridSlot, 0, len(slots))
	for _, slot := range slots {
		start := ParseClock(slot.StartTime)
		end := ParseClock(slot.EndTime)
		if start < 0 || end <= start {
			continue
		}
		parsed = append(parsed, gridSlot{id: slot.ID, start: start, end: end})
	}
	sort.Slice(parsed, func(i, j int) bool { return parsed[i].start < parsed[j].start })
	return parsed
}

func (r *fallbackRun) scheduleSection(section models.Section, required int) int {
	group := models.StudentGroup(section.SectionCode)
	unitsPerSession := 2
	if !r.cfg.AllowSplitSessions {
		unitsPerSession = required
	}

	placed := 0
	for placed < required {
		progressed := false
		for _, day := range r.cfg.ActiveDays {
			if placed >= required {
				break
			}
			if !r.dayAdmits(group, section.CourseCode, day) {
				continue
			}
			if r.placeOnDay(section, group, day, unitsPerSession) {
				placed += unitsPerSession
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	return placed
}

// dayAdmits applies the per-day cap, the no-same-day-repeat rule and the
// minimum day gap between two sessions of one course for one group.
func (r *fallbackRun) dayAdmits(group, course string, day int) bool {
	if counts := r.groupDayCount[group]; counts[day] >= r.cfg.MaxClassesPerDay {
		return false
	}
	courseKey := group + "|" + course
	days := r.courseDays[courseKey]
	if days[day] {
		return false
	}
	for other := range days {
		if abs(day-other) < r.cfg.MinCourseDayGap {
			return false
		}
	}
	return true
}

func (r *fallbackRun) placeOnDay(section models.Section, group string, day, units int) bool {
	online := r.cfg.isOnlineDay(day)

	if online {
		if first, ok := r.findWindow(group, section.TeacherName, "", day, units); ok {
			return r.commit(section, group, day, first, units, nil)
		}
		return false
	}

	for _, roomIdx := range r.candidateRooms(section) {
		room := r.rooms[roomIdx]
		if first, ok := r.findWindow(group, section.TeacherName, room.ID, day, units); ok {
			return r.commit(section, group, day, first, units, &room)
		}
	}
	return false
}

// candidateRooms filters on capacity (>= 90% of the student count), strict
// lab/lecture matching, required feature tags and college ownership, sorted
// by closeness of capacity fit.
func (r *fallbackRun) candidateRooms(section models.Section) []int {
	minCapacity := int(math.Ceil(float64(section.StudentCount) * 0.9))
	isLab := section.IsLab()

	var candidates []int
	for idx, room := range r.rooms {
		if room.Capacity < minCapacity {
			continue
		}
		if r.cfg.StrictRoomTypes {
			if isLab && room.RoomType != models.RoomTypeLaboratory {
				continue
			}
			if !isLab && room.RoomType == models.RoomTypeLaboratory {
				continue
			}
		}
		if !room.HasFeatures(section.RequiredFeatures) {
			continue
		}
		if !room.IsShared() && room.College != section.College {
			continue
		}
		candidates = append(candidates, idx)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return abs(r.rooms[candidates[i]].Capacity-section.StudentCount) < abs(r.rooms[candidates[j]].Capacity-section.StudentCount)
	})
	return candidates
}

// findWindow scans the grid for `units` consecutive free slots satisfying the
// lunch window and night-to-morning rules. roomID is empty for online days.
func (r *fallbackRun) findWindow(group, teacher, roomID string, day, units int) (int, bool) {
	for first := 0; first+units <= len(r.grid); first++ {
		if !r.slotsConsecutive(first, units) {
			continue
		}
		start := r.grid[first].start
		end := r.grid[first+units-1].end
		if !r.windowAdmits(group, day, start, end) {
			continue
		}
		if r.cellsBusy(group, teacher, roomID, day, first, units) {
			continue
		}
		return first, true
	}
	return 0, false
}

func (r *fallbackRun) slotsConsecutive(first, units int) bool {
	for i := first; i < first+units-1; i++ {
		if r.grid[i].end != r.grid[i+1].start {
			return false
		}
	}
	return true
}

// windowAdmits rejects lunch-window overlaps, enforces the night-to-morning
// rule in both directions and caps consecutive teaching time for the group.
func (r *fallbackRun) windowAdmits(group string, day, start, end int) bool {
	if r.cfg.LunchMode != LunchModeNone && Overlaps(start, end, r.cfg.LunchStart, r.cfg.LunchEnd) {
		return false
	}

	// A group taught into the night cannot be scheduled early the next
	// morning, and vice versa.
	if prev, ok := r.groupLatestEnd[group][day-1]; ok && prev >= r.cfg.NightThreshold && start < r.cfg.LateStartThreshold {
		return false
	}
	if next, ok := r.groupEarliest[group][day+1]; ok && end >= r.cfg.NightThreshold && next < r.cfg.LateStartThreshold {
		return false
	}

	if r.cfg.MaxConsecutiveHours > 0 {
		if r.consecutiveRun(group, day, start, end) > r.cfg.MaxConsecutiveHours*60 {
			return false
		}
	}
	return true
}

// consecutiveRun measures the back-to-back teaching run that would result from
// adding [start,end) to the group's day.
func (r *fallbackRun) consecutiveRun(group string, day, start, end int) int {
	runStart, runEnd := start, end
	extended := true
	for extended {
		extended = false
		for _, iv := range r.groupIntervals[group][day] {
			if iv.end == runStart {
				runStart = iv.start
				extended = true
			}
			if iv.start == runEnd {
				runEnd = iv.end
				extended = true
			}
		}
	}
	return runEnd - runStart
}

func (r *fallbackRun) cellsBusy(group, teacher, roomID string, day, first, units int) bool {
	for i := first; i < first+units; i++ {
		cell := dayCell{day: day, slot: i}
		if roomID != "" && r.roomBusy[roomID][cell] {
			return true
		}
		if teacher != "" && r.teacherBusy[teacher][cell] {
			return true
		}
		if r.groupBusy[group][cell] {
			return true
		}
	}
	return false
}

// commit appends the placement, reporting false when the correctness check
// rejects it so callers never count units that produced no allocation.
func (r *fallbackRun) commit(section models.Section, group string, day, first, units int, room *models.Room) bool {
	start := r.grid[first].start
	end := r.grid[first+units-1].end

	alloc := models.Allocation{
		ID:          uuid.NewString(),
		SectionID:   section.ID,
		DayOfWeek:   day,
		StartTime:   FormatClock(start),
		EndTime:     FormatClock(end),
		CourseCode:  section.CourseCode,
		CourseName:  section.CourseName,
		SectionCode: section.SectionCode,
		TeacherName: section.TeacherName,
	}
	roomID := ""
	if room != nil {
		roomID = room.ID
		alloc.RoomID = &roomID
		alloc.RoomName = room.Name
		alloc.Building = room.Building
	}

	// Belt-and-braces correctness check against everything committed so far.
	report := Check(r.allocations, Candidate{
		RoomID:      roomID,
		DayOfWeek:   day,
		Start:       start,
		End:         end,
		TeacherName: section.TeacherName,
		SectionCode: section.SectionCode,
	}, nil)
	if report.HasConflict() {
		return false
	}

	allocIdx := len(r.allocations)
	r.allocations = append(r.allocations, alloc)
	r.placements = append(r.placements, fallbackPlacement{
		allocIdx:  allocIdx,
		group:     group,
		course:    section.CourseCode,
		teacher:   section.TeacherName,
		day:       day,
		firstSlot: first,
		slotCount: units,
		roomID:    roomID,
		start:     start,
		end:       end,
	})
	r.groupPlacements[group] = append(r.groupPlacements[group], len(r.placements)-1)

	r.fillCells(group, section.TeacherName, roomID, day, first, units, true)
	r.trackPlacement(group, section.CourseCode, day, start, end, +1)
	return true
}

func (r *fallbackRun) fillCells(group, teacher, roomID string, day, first, units int, busy bool) {
	set := func(m map[string]map[dayCell]bool, key string) {
		if key == "" {
			return
		}
		if m[key] == nil {
			m[key] = make(map[dayCell]bool)
		}
		for i := first; i < first+units; i++ {
			if busy {
				m[key][dayCell{day: day, slot: i}] = true
			} else {
				delete(m[key], dayCell{day: day, slot: i})
			}
		}
	}
	set(r.roomBusy, roomID)
	set(r.teacherBusy, teacher)
	set(r.groupBusy, group)
}

func (r *fallbackRun) trackPlacement(group, course string, day, start, end, delta int) {
	if r.groupDayCount[group] == nil {
		r.groupDayCount[group] = make(map[int]int)
	}
	r.groupDayCount[group][day] += delta

	courseKey := group + "|" + course
	if delta > 0 {
		if r.courseDays[courseKey] == nil {
			r.courseDays[courseKey] = make(map[int]bool)
		}
		r.courseDays[courseKey][day] = true
	} else {
		delete(r.courseDays[courseKey], day)
	}

	if delta > 0 {
		if r.groupIntervals[group] == nil {
			r.groupIntervals[group] = make(map[int][]interval)
		}
		r.groupIntervals[group][day] = append(r.groupIntervals[group][day], interval{start: start, end: end})
	} else {
		ivs := r.groupIntervals[group][day]
		for i, iv := range ivs {
			if iv.start == start && iv.end == end {
				r.groupIntervals[group][day] = append(ivs[:i], ivs[i+1:]...)
				break
			}
		}
	}

	r.recomputeBounds(group, day)
}

func (r *fallbackRun) recomputeBounds(group string, day int) {
	ivs := r.groupIntervals[group][day]
	if len(ivs) == 0 {
		delete(r.groupLatestEnd[group], day)
		delete(r.groupEarliest[group], day)
		return
	}
	latest, earliest := ivs[0].end, ivs[0].start
	for _, iv := range ivs[1:] {
		if iv.end > latest {
			latest = iv.end
		}
		if iv.start < earliest {
			earliest = iv.start
		}
	}
	if r.groupLatestEnd[group] == nil {
		r.groupLatestEnd[group] = make(map[int]int)
	}
	if r.groupEarliest[group] == nil {
		r.groupEarliest[group] = make(map[int]int)
	}
	r.groupLatestEnd[group][day] = latest
	r.groupEarliest[group][day] = earliest
}

// consolidate relocates lone classes into busier days for each student group,
// keeping the same room and respecting the same-day and day-gap exclusions.
// Classes stay in place when no busier day can take them. Groups are visited
// in sorted order so runs over the same input always produce the same result.
func (r *fallbackRun) consolidate() {
	groups := make([]string, 0, len(r.groupPlacements))
	for group := range r.groupPlacements {
		groups = append(groups, group)
	}
	sort.Strings(groups)

	for _, group := range groups {
		placementIdxs := r.groupPlacements[group]
		perDay := make(map[int][]int)
		for _, pIdx := range placementIdxs {
			p := r.placements[pIdx]
			perDay[p.day] = append(perDay[p.day], pIdx)
		}

		var loneDays, busierDays []int
		for day, idxs := range perDay {
			switch {
			case len(idxs) == 1:
				loneDays = append(loneDays, day)
			case len(idxs) >= 2 && len(idxs) < r.cfg.MaxClassesPerDay:
				busierDays = append(busierDays, day)
			}
		}
		sort.Ints(loneDays)
		sort.Ints(busierDays)

		for _, loneDay := range loneDays {
			pIdx := perDay[loneDay][0]
			r.tryRelocate(group, pIdx, busierDays)
		}
	}
}

func (r *fallbackRun) tryRelocate(group string, pIdx int, busierDays []int) {
	p := r.placements[pIdx]
	if p.roomID == "" {
		return
	}

	for _, target := range busierDays {
		if target == p.day {
			continue
		}
		if r.groupDayCount[group][target] >= r.cfg.MaxClassesPerDay {
			continue
		}

		// Same-day and day-gap exclusions, ignoring the slot being moved.
		courseKey := group + "|" + p.course
		if r.courseDays[courseKey][target] {
			continue
		}
		gapOK := true
		for other := range r.courseDays[courseKey] {
			if other == p.day {
				continue
			}
			if abs(target-other) < r.cfg.MinCourseDayGap {
				gapOK = false
				break
			}
		}
		if !gapOK {
			continue
		}

		first, ok := r.findWindow(group, p.teacher, p.roomID, target, p.slotCount)
		if !ok {
			continue
		}

		r.fillCells(group, p.teacher, p.roomID, p.day, p.firstSlot, p.slotCount, false)
		r.trackPlacement(group, p.course, p.day, p.start, p.end, -1)

		start := r.grid[first].start
		end := r.grid[first+p.slotCount-1].end
		r.placements[pIdx].day = target
		r.placements[pIdx].firstSlot = first
		r.placements[pIdx].start = start
		r.placements[pIdx].end = end

		alloc := &r.allocations[p.allocIdx]
		alloc.DayOfWeek = target
		alloc.StartTime = FormatClock(start)
		alloc.EndTime = FormatClock(end)

		r.fillCells(group, p.teacher, p.roomID, target, first, p.slotCount, true)
		r.trackPlacement(group, p.course, target, start, end, +1)
		return
	}
}
