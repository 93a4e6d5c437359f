package scheduler

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

const missingAccessibilityPenalty = 10.0

// AnnealingAllocator assigns rooms to sections whose meeting day/time is
// already fixed upstream. It seeds greedily and then refines via randomized
// swaps with Metropolis acceptance and a tunneling escape. The random source
// is an explicit dependency so runs are reproducible under test.
type AnnealingAllocator struct {
	tunables Tunables
	rng      *rand.Rand
	logger   *zap.Logger
}

// NewAnnealingAllocator builds the allocator, defaulting unset tunables.
func NewAnnealingAllocator(tunables Tunables, rng *rand.Rand, logger *zap.Logger) *AnnealingAllocator {
	if tunables.MaxIterations <= 0 {
		tunables.MaxIterations = 2000
	}
	if tunables.InitialTemperature <= 0 {
		tunables.InitialTemperature = 100
	}
	if tunables.CoolingRate <= 0 || tunables.CoolingRate >= 1 {
		tunables.CoolingRate = 0.995
	}
	if tunables.TunnelingProbability < 0 || tunables.TunnelingProbability >= 1 {
		tunables.TunnelingProbability = 0.02
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnealingAllocator{tunables: tunables, rng: rng, logger: logger}
}

type occupancyKey struct {
	RoomID string
	Day    int
	Start  int
	End    int
}

type annealingSlot struct {
	section models.Section
	day     int
	start   int
	end     int
	roomIdx int
}

// Plan produces an allocation list and run statistics. Sections with no free
// room at their slot are reported unscheduled, never an error.
func (a *AnnealingAllocator) Plan(ctx context.Context, input PlanInput) (*Outcome, error) {
	started := time.Now()

	occupied := make(map[occupancyKey]bool)
	var placed []annealingSlot
	var unscheduled []UnscheduledSection

	for _, section := range input.Sections {
		if section.DayOfWeek == nil || section.StartTime == nil || section.EndTime == nil {
			unscheduled = append(unscheduled, UnscheduledSection{
				SectionID:   section.ID,
				SectionCode: section.SectionCode,
				Reason:      "section has no fixed meeting time",
			})
			continue
		}
		day := *section.DayOfWeek
		start := ParseClock(*section.StartTime)
		end := ParseClock(*section.EndTime)
		if start < 0 || end <= start {
			unscheduled = append(unscheduled, UnscheduledSection{
				SectionID:   section.ID,
				SectionCode: section.SectionCode,
				Reason:      "section has a malformed meeting time",
			})
			continue
		}

		candidates := a.freeRooms(input.Rooms, occupied, day, start, end, -1)
		if len(candidates) == 0 {
			unscheduled = append(unscheduled, UnscheduledSection{
				SectionID:   section.ID,
				SectionCode: section.SectionCode,
				Reason:      "no room free at " + DayName(day) + " " + *section.StartTime,
			})
			continue
		}

		a.rankCandidates(input.Rooms, candidates, section.StudentCount)
		chosen := candidates[0]
		occupied[occupancyKey{RoomID: input.Rooms[chosen].ID, Day: day, Start: start, End: end}] = true
		placed = append(placed, annealingSlot{section: section, day: day, start: start, end: end, roomIdx: chosen})
	}

	initialCost := a.totalCost(input.Rooms, placed)
	stats := Stats{InitialCost: initialCost}

	temperature := a.tunables.InitialTemperature
	for iter := 0; iter < a.tunables.MaxIterations; iter++ {
		if ctx.Err() != nil {
			break
		}
		stats.Iterations++

		if len(placed) > 0 {
			idx := a.rng.Intn(len(placed))
			slot := &placed[idx]
			current := input.Rooms[slot.roomIdx]

			alternatives := a.freeRooms(input.Rooms, occupied, slot.day, slot.start, slot.end, slot.roomIdx)
			if len(alternatives) > 0 {
				next := alternatives[a.rng.Intn(len(alternatives))]
				delta := a.roomCost(input.Rooms[next], slot.section.StudentCount) - a.roomCost(current, slot.section.StudentCount)

				accept := false
				switch {
				case delta < 0:
					accept = true
					stats.Improvements++
				case temperature > 0 && a.rng.Float64() < math.Exp(-delta/temperature):
					accept = true
				case a.rng.Float64() < a.tunables.TunnelingProbability:
					accept = true
					stats.TunnelingEvents++
				}

				if accept {
					delete(occupied, occupancyKey{RoomID: current.ID, Day: slot.day, Start: slot.start, End: slot.end})
					occupied[occupancyKey{RoomID: input.Rooms[next].ID, Day: slot.day, Start: slot.start, End: slot.end}] = true
					slot.roomIdx = next
				}
			}
		}

		temperature *= a.tunables.CoolingRate
	}

	allocations := make([]models.Allocation, 0, len(placed))
	for _, slot := range placed {
		room := input.Rooms[slot.roomIdx]
		roomID := room.ID
		allocations = append(allocations, models.Allocation{
			SectionID:   slot.section.ID,
			RoomID:      &roomID,
			DayOfWeek:   slot.day,
			StartTime:   FormatClock(slot.start),
			EndTime:     FormatClock(slot.end),
			CourseCode:  slot.section.CourseCode,
			CourseName:  slot.section.CourseName,
			SectionCode: slot.section.SectionCode,
			RoomName:    room.Name,
			Building:    room.Building,
			TeacherName: slot.section.TeacherName,
		})
	}

	stats.FinalCost = a.totalCost(input.Rooms, placed)
	stats.Elapsed = time.Since(started)
	stats.ScheduledCount = len(placed)
	stats.UnscheduledCount = len(unscheduled)
	if total := len(input.Sections); total > 0 {
		stats.SuccessRate = float64(stats.ScheduledCount) / float64(total)
	}

	a.logger.Info("annealing run finished",
		zap.Float64("initial_cost", stats.InitialCost),
		zap.Float64("final_cost", stats.FinalCost),
		zap.Int("iterations", stats.Iterations),
		zap.Int("improvements", stats.Improvements),
		zap.Int("tunneling_events", stats.TunnelingEvents),
		zap.Int("scheduled", stats.ScheduledCount),
		zap.Int("unscheduled", stats.UnscheduledCount),
	)

	return &Outcome{Allocations: allocations, Stats: stats, Unscheduled: unscheduled}, nil
}

// freeRooms returns indices of rooms with no occupancy at the slot key,
// excluding excludeIdx when >= 0.
func (a *AnnealingAllocator) freeRooms(rooms []models.Room, occupied map[occupancyKey]bool, day, start, end, excludeIdx int) []int {
	var free []int
	for idx, room := range rooms {
		if idx == excludeIdx {
			continue
		}
		if occupied[occupancyKey{RoomID: room.ID, Day: day, Start: start, End: end}] {
			continue
		}
		free = append(free, idx)
	}
	return free
}

// rankCandidates orders candidates by capacity fit, then stable-sorts
// accessible rooms first when accessibility priority is requested.
func (a *AnnealingAllocator) rankCandidates(rooms []models.Room, candidates []int, demand int) {
	sort.SliceStable(candidates, func(i, j int) bool {
		fitI := abs(rooms[candidates[i]].Capacity - demand)
		fitJ := abs(rooms[candidates[j]].Capacity - demand)
		return fitI < fitJ
	})
	if a.tunables.AccessibilityPriority {
		sort.SliceStable(candidates, func(i, j int) bool {
			return rooms[candidates[i]].Accessible && !rooms[candidates[j]].Accessible
		})
	}
}

func (a *AnnealingAllocator) roomCost(room models.Room, demand int) float64 {
	cost := 0.5 * math.Abs(float64(room.Capacity-demand))
	if a.tunables.AccessibilityPriority && !room.Accessible {
		cost += missingAccessibilityPenalty
	}
	return cost
}

func (a *AnnealingAllocator) totalCost(rooms []models.Room, placed []annealingSlot) float64 {
	var total float64
	for _, slot := range placed {
		total += a.roomCost(rooms[slot.roomIdx], slot.section.StudentCount)
	}
	return total
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
