package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/scheduler"
	"github.com/noah-isme/campus-timetable-api/pkg/config"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

// Allocation strategies reported in responses and metrics.
const (
	StrategyOptimizer = "optimizer"
	StrategyFallback  = "fallback"
	StrategyAnnealing = "annealing"
)

type catalogReader interface {
	ListRooms(ctx context.Context) ([]models.Room, error)
	ListSections(ctx context.Context) ([]models.Section, error)
	ListTimeSlots(ctx context.Context) ([]models.TimeSlot, error)
}

type scheduleStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, schedule *models.Schedule) error
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	List(ctx context.Context, semester, academicYear string, page models.Pagination) ([]models.Schedule, error)
	UpdateLocked(ctx context.Context, exec sqlx.ExtContext, id string, locked bool) error
	SetCurrent(ctx context.Context, exec sqlx.ExtContext, id string) error
	UpdateCounts(ctx context.Context, exec sqlx.ExtContext, id string, scheduled, unscheduled int, stats types.JSONText) error
}

type allocationStore interface {
	BulkCreate(ctx context.Context, exec sqlx.ExtContext, scheduleID string, allocations []models.Allocation) error
	DeleteBySchedule(ctx context.Context, exec sqlx.ExtContext, scheduleID string) error
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.Allocation, error)
}

type optimizerCaller interface {
	Enabled() bool
	Optimize(ctx context.Context, payload dto.OptimizeRequest) (*dto.OptimizeResponse, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type runObserver interface {
	ObserveAllocatorRun(strategy string, duration time.Duration, unscheduled int)
	RecordOptimizerFailure()
}

// AllocationService runs timetable builds: the external optimizer first when
// enabled, the deterministic fallback otherwise, plus the annealing room
// assigner for slot-fixed terms. It also owns the schedule lifecycle flags.
type AllocationService struct {
	catalog     catalogReader
	schedules   scheduleStore
	allocations allocationStore
	optimizer   optimizerCaller
	tx          txProvider
	metrics     runObserver
	validator   *validator.Validate
	logger      *zap.Logger

	optimizerEnabled bool
	annealing        config.AnnealingConfig
	fallback         config.FallbackConfig
}

// NewAllocationService wires the allocation workflow.
func NewAllocationService(
	catalog catalogReader,
	schedules scheduleStore,
	allocations allocationStore,
	optimizer optimizerCaller,
	tx txProvider,
	metrics runObserver,
	validate *validator.Validate,
	logger *zap.Logger,
	optimizerEnabled bool,
	annealing config.AnnealingConfig,
	fallback config.FallbackConfig,
) *AllocationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AllocationService{
		catalog:          catalog,
		schedules:        schedules,
		allocations:      allocations,
		optimizer:        optimizer,
		tx:               tx,
		metrics:          metrics,
		validator:        validate,
		logger:           logger,
		optimizerEnabled: optimizerEnabled,
		annealing:        annealing,
		fallback:         fallback,
	}
}

// Plan builds a full timetable. The optimizer is consulted first; any failure
// or invalid answer falls through to the deterministic fallback allocator.
func (s *AllocationService) Plan(ctx context.Context, req dto.PlanRequest) (*dto.PlanResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid plan request")
	}

	var target *models.Schedule
	if req.ScheduleID != "" {
		loaded, err := s.schedules.FindByID(ctx, req.ScheduleID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.ErrNotFound
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load schedule")
		}
		if loaded.IsLocked {
			return nil, appErrors.Clone(appErrors.ErrScheduleLocked, "schedule is locked; re-planning would rewrite its allocations")
		}
		target = loaded
	}

	input, err := s.loadPlanInput(ctx)
	if err != nil {
		return nil, err
	}

	outcome, strategy := s.runPlan(ctx, input)
	resp := &dto.PlanResponse{
		Strategy:    strategy,
		Allocations: outcome.Allocations,
		Unscheduled: outcome.Unscheduled,
		Stats:       outcome.Stats,
	}
	if s.metrics != nil {
		s.metrics.ObserveAllocatorRun(strategy, outcome.Stats.Elapsed, outcome.Stats.UnscheduledCount)
	}

	if req.Persist {
		if target != nil {
			s.replanOutcome(ctx, target, outcome, resp)
		} else {
			s.persistOutcome(ctx, req.Name, req.Semester, req.AcademicYear, outcome, resp)
		}
	}
	return resp, nil
}

// AnnealRooms assigns rooms to sections whose meeting times are already fixed.
func (s *AllocationService) AnnealRooms(ctx context.Context, req dto.AnnealRequest) (*dto.PlanResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid anneal request")
	}

	input, err := s.loadPlanInput(ctx)
	if err != nil {
		return nil, err
	}

	tunables := scheduler.Tunables{
		MaxIterations:         s.annealing.MaxIterations,
		InitialTemperature:    s.annealing.InitialTemperature,
		CoolingRate:           s.annealing.CoolingRate,
		TunnelingProbability:  s.annealing.TunnelingProbability,
		AccessibilityPriority: s.annealing.AccessibilityPriority,
	}
	if req.MaxIterations > 0 {
		tunables.MaxIterations = req.MaxIterations
	}
	if req.InitialTemperature > 0 {
		tunables.InitialTemperature = req.InitialTemperature
	}
	if req.CoolingRate > 0 {
		tunables.CoolingRate = req.CoolingRate
	}
	if req.TunnelingProbability > 0 {
		tunables.TunnelingProbability = req.TunnelingProbability
	}
	if req.AccessibilityPriority {
		tunables.AccessibilityPriority = true
	}

	var rng *rand.Rand
	seed := req.Seed
	if seed == 0 {
		seed = s.annealing.Seed
	}
	if seed != 0 {
		rng = rand.New(rand.NewSource(seed))
	}

	allocator := scheduler.NewAnnealingAllocator(tunables, rng, s.logger)
	outcome, err := allocator.Plan(ctx, input)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "annealing run failed")
	}

	resp := &dto.PlanResponse{
		Strategy:    StrategyAnnealing,
		Allocations: outcome.Allocations,
		Unscheduled: outcome.Unscheduled,
		Stats:       outcome.Stats,
	}
	if s.metrics != nil {
		s.metrics.ObserveAllocatorRun(StrategyAnnealing, outcome.Stats.Elapsed, outcome.Stats.UnscheduledCount)
	}
	if req.Persist {
		s.persistOutcome(ctx, req.Name, req.Semester, req.AcademicYear, outcome, resp)
	}
	return resp, nil
}

// Lock freezes a schedule against allocator writes. Locking is one-way.
func (s *AllocationService) Lock(ctx context.Context, scheduleID string) (*models.Schedule, error) {
	schedule, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load schedule")
	}
	if schedule.IsLocked {
		return schedule, nil
	}
	if err := s.schedules.UpdateLocked(ctx, nil, scheduleID, true); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "lock schedule")
	}
	schedule.IsLocked = true
	s.logger.Info("schedule locked", zap.String("schedule_id", scheduleID))
	return schedule, nil
}

// SetCurrent promotes a locked schedule to the live one. Exactly one schedule
// is current at any time.
func (s *AllocationService) SetCurrent(ctx context.Context, scheduleID string) (*models.Schedule, error) {
	schedule, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load schedule")
	}
	if !schedule.IsLocked {
		return nil, appErrors.Clone(appErrors.ErrScheduleNotLocked, "schedule must be locked before it becomes current")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "begin transaction")
	}
	if err := s.schedules.SetCurrent(ctx, tx, scheduleID); err != nil {
		_ = tx.Rollback()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "set current schedule")
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "commit current flip")
	}

	schedule.IsCurrent = true
	s.logger.Info("schedule promoted to current", zap.String("schedule_id", scheduleID))
	return schedule, nil
}

// Get returns a schedule with its allocations.
func (s *AllocationService) Get(ctx context.Context, scheduleID string) (*models.Schedule, []models.Allocation, error) {
	schedule, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.ErrNotFound
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load schedule")
	}
	allocations, err := s.allocations.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load allocations")
	}
	return schedule, allocations, nil
}

// List returns schedule summaries.
func (s *AllocationService) List(ctx context.Context, query dto.ScheduleQuery) ([]models.Schedule, error) {
	schedules, err := s.schedules.List(ctx, query.Semester, query.AcademicYear, models.Pagination{Page: query.Page, PageSize: query.PageSize})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list schedules")
	}
	return schedules, nil
}

func (s *AllocationService) loadPlanInput(ctx context.Context) (scheduler.PlanInput, error) {
	rooms, err := s.catalog.ListRooms(ctx)
	if err != nil {
		return scheduler.PlanInput{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load rooms")
	}
	sections, err := s.catalog.ListSections(ctx)
	if err != nil {
		return scheduler.PlanInput{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load sections")
	}
	grid, err := s.catalog.ListTimeSlots(ctx)
	if err != nil {
		return scheduler.PlanInput{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load time grid")
	}

	// Empty reference data is an input failure, not a scheduling outcome. No
	// allocator runs against it.
	if len(rooms) == 0 {
		return scheduler.PlanInput{}, appErrors.Clone(appErrors.ErrValidation, "rooms are required: the catalog holds no rooms to schedule into")
	}
	if len(sections) == 0 {
		return scheduler.PlanInput{}, appErrors.Clone(appErrors.ErrValidation, "sections are required: the catalog holds no sections to place")
	}
	return scheduler.PlanInput{Rooms: rooms, Sections: sections, Grid: grid}, nil
}

// runPlan consults the optimizer and falls back on any failure, including an
// answer the conflict detector rejects.
func (s *AllocationService) runPlan(ctx context.Context, input scheduler.PlanInput) (*scheduler.Outcome, string) {
	if s.optimizerEnabled && s.optimizer != nil && s.optimizer.Enabled() {
		started := time.Now()
		remote, err := s.optimizer.Optimize(ctx, s.buildOptimizeRequest(input))
		if err == nil {
			outcome, convErr := s.adoptOptimizerAnswer(input, remote, time.Since(started))
			if convErr == nil {
				return outcome, StrategyOptimizer
			}
			err = convErr
		}
		s.logger.Warn("optimizer unusable, running fallback allocator", zap.Error(err))
		if s.metrics != nil {
			s.metrics.RecordOptimizerFailure()
		}
	}

	allocator := scheduler.NewFallbackAllocator(s.constraintConfig(), s.logger)
	outcome, err := allocator.Plan(ctx, input)
	if err != nil {
		// The fallback only errors on a broken grid; surface everything as
		// unscheduled rather than failing the request.
		s.logger.Error("fallback allocator failed", zap.Error(err))
		outcome = &scheduler.Outcome{}
		for _, section := range input.Sections {
			outcome.Unscheduled = append(outcome.Unscheduled, scheduler.UnscheduledSection{
				SectionID:   section.ID,
				SectionCode: section.SectionCode,
				Reason:      "allocator error: " + err.Error(),
			})
		}
		outcome.Stats.UnscheduledCount = len(outcome.Unscheduled)
	}
	return outcome, StrategyFallback
}

func (s *AllocationService) constraintConfig() scheduler.ConstraintConfig {
	return scheduler.ConstraintConfig{
		ActiveDays:          s.fallback.ActiveDays,
		OnlineDays:          s.fallback.OnlineDays,
		LunchMode:           s.fallback.LunchMode,
		LunchStart:          scheduler.ParseClock(s.fallback.LunchStart),
		LunchEnd:            scheduler.ParseClock(s.fallback.LunchEnd),
		StrictRoomTypes:     s.fallback.StrictRoomTypes,
		MaxClassesPerDay:    s.fallback.MaxClassesPerDay,
		MinCourseDayGap:     s.fallback.MinCourseDayGap,
		MaxConsecutiveHours: s.fallback.MaxConsecutiveHours,
		AllowSplitSessions:  s.fallback.AllowSplitSessions,
		NightThreshold:      scheduler.ParseClock(s.fallback.NightThreshold),
		LateStartThreshold:  scheduler.ParseClock(s.fallback.LateStartThreshold),
	}
}

func (s *AllocationService) buildOptimizeRequest(input scheduler.PlanInput) dto.OptimizeRequest {
	req := dto.OptimizeRequest{
		Constraints: dto.OptimizeConstraints{
			ActiveDays:          s.fallback.ActiveDays,
			OnlineDays:          s.fallback.OnlineDays,
			LunchMode:           s.fallback.LunchMode,
			LunchStart:          s.fallback.LunchStart,
			LunchEnd:            s.fallback.LunchEnd,
			StrictRoomTypes:     s.fallback.StrictRoomTypes,
			MaxClassesPerDay:    s.fallback.MaxClassesPerDay,
			MinCourseDayGap:     s.fallback.MinCourseDayGap,
			MaxConsecutiveHours: s.fallback.MaxConsecutiveHours,
			NightThreshold:      s.fallback.NightThreshold,
			LateStartThreshold:  s.fallback.LateStartThreshold,
		},
	}
	for _, section := range input.Sections {
		req.Sections = append(req.Sections, dto.OptimizeSection{
			ID:               section.ID,
			CourseCode:       section.CourseCode,
			CourseName:       section.CourseName,
			SectionCode:      section.SectionCode,
			YearLevel:        section.YearLevel,
			StudentCount:     section.StudentCount,
			WeeklyHours:      section.WeeklyHours(),
			LectureHours:     section.LectureHours,
			LabHours:         section.LabHours,
			IsLab:            section.IsLab(),
			College:          section.College,
			TeacherID:        section.TeacherID,
			TeacherName:      section.TeacherName,
			RequiredFeatures: section.RequiredFeatures,
		})
	}
	for _, room := range input.Rooms {
		req.Rooms = append(req.Rooms, dto.OptimizeRoom{
			ID:         room.ID,
			Name:       room.Name,
			Campus:     room.Campus,
			Building:   room.Building,
			Floor:      room.Floor,
			Capacity:   room.Capacity,
			RoomType:   room.RoomType,
			College:    room.College,
			Accessible: room.Accessible,
			Features:   room.Features,
		})
	}
	for _, slot := range input.Grid {
		req.Grid = append(req.Grid, dto.OptimizeSlot{ID: slot.ID, StartTime: slot.StartTime, EndTime: slot.EndTime})
	}
	return req
}

// adoptOptimizerAnswer converts remote assignments into allocations, running
// every one through the conflict detector. A malformed or conflicting answer
// rejects the whole response so the fallback can take over.
func (s *AllocationService) adoptOptimizerAnswer(input scheduler.PlanInput, remote *dto.OptimizeResponse, elapsed time.Duration) (*scheduler.Outcome, error) {
	sectionByID := make(map[string]models.Section, len(input.Sections))
	for _, section := range input.Sections {
		sectionByID[section.ID] = section
	}
	roomByID := make(map[string]models.Room, len(input.Rooms))
	for _, room := range input.Rooms {
		roomByID[room.ID] = room
	}

	var accepted []models.Allocation
	for _, assignment := range remote.Assignments {
		section, ok := sectionByID[assignment.SectionID]
		if !ok {
			return nil, fmt.Errorf("optimizer assigned unknown section %s", assignment.SectionID)
		}
		start := scheduler.ParseClock(assignment.StartTime)
		end := scheduler.ParseClock(assignment.EndTime)
		if start < 0 || end <= start || assignment.DayOfWeek < 1 || assignment.DayOfWeek > 7 {
			return nil, fmt.Errorf("optimizer produced a malformed meeting for section %s", assignment.SectionID)
		}

		allocation := models.Allocation{
			SectionID:   section.ID,
			DayOfWeek:   assignment.DayOfWeek,
			StartTime:   assignment.StartTime,
			EndTime:     assignment.EndTime,
			CourseCode:  section.CourseCode,
			CourseName:  section.CourseName,
			SectionCode: section.SectionCode,
			TeacherName: section.TeacherName,
		}
		candidate := scheduler.Candidate{
			DayOfWeek:   assignment.DayOfWeek,
			Start:       start,
			End:         end,
			TeacherName: section.TeacherName,
			SectionCode: section.SectionCode,
		}
		if assignment.RoomID != nil {
			room, ok := roomByID[*assignment.RoomID]
			if !ok {
				return nil, fmt.Errorf("optimizer assigned unknown room %s", *assignment.RoomID)
			}
			roomID := room.ID
			allocation.RoomID = &roomID
			allocation.RoomName = room.Name
			allocation.Building = room.Building
			candidate.RoomID = room.ID
		}

		if report := scheduler.Check(accepted, candidate, nil); report.HasConflict() {
			return nil, fmt.Errorf("optimizer answer conflicts on section %s: %s", section.SectionCode, report.Conflicts()[0].Description)
		}
		accepted = append(accepted, allocation)
	}

	outcome := &scheduler.Outcome{Allocations: accepted}
	for _, miss := range remote.Unscheduled {
		code := miss.SectionID
		if section, ok := sectionByID[miss.SectionID]; ok {
			code = section.SectionCode
		}
		outcome.Unscheduled = append(outcome.Unscheduled, scheduler.UnscheduledSection{
			SectionID:   miss.SectionID,
			SectionCode: code,
			Reason:      miss.Reason,
		})
	}
	outcome.Stats = scheduler.Stats{
		Elapsed:          elapsed,
		ScheduledCount:   len(accepted),
		UnscheduledCount: len(outcome.Unscheduled),
		FinalCost:        remote.Score,
	}
	if total := len(input.Sections); total > 0 {
		outcome.Stats.SuccessRate = float64(outcome.Stats.ScheduledCount) / float64(total)
	}
	return outcome, nil
}

// persistOutcome stores the run. Persistence failure downgrades to a note on
// the response; the computed timetable is never thrown away.
func (s *AllocationService) persistOutcome(ctx context.Context, name, semester, academicYear string, outcome *scheduler.Outcome, resp *dto.PlanResponse) {
	stats, err := json.Marshal(outcome.Stats)
	if err != nil {
		stats = []byte(`{}`)
	}
	schedule := &models.Schedule{
		Name:             name,
		Semester:         semester,
		AcademicYear:     academicYear,
		ScheduledCount:   outcome.Stats.ScheduledCount,
		UnscheduledCount: outcome.Stats.UnscheduledCount,
		Stats:            types.JSONText(stats),
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		resp.PersistNote = "persist failed: " + err.Error()
		s.logger.Error("begin persist transaction", zap.Error(err))
		return
	}
	if err := s.schedules.Create(ctx, tx, schedule); err != nil {
		_ = tx.Rollback()
		resp.PersistNote = "persist failed: " + err.Error()
		s.logger.Error("persist schedule", zap.Error(err))
		return
	}
	if err := s.allocations.BulkCreate(ctx, tx, schedule.ID, outcome.Allocations); err != nil {
		_ = tx.Rollback()
		resp.PersistNote = "persist failed: " + err.Error()
		s.logger.Error("persist allocations", zap.Error(err))
		return
	}
	if err := tx.Commit(); err != nil {
		resp.PersistNote = "persist failed: " + err.Error()
		s.logger.Error("commit persist transaction", zap.Error(err))
		return
	}

	resp.ScheduleID = schedule.ID
	resp.Persisted = true
	resp.Allocations = outcome.Allocations
	s.logger.Info("allocation run persisted",
		zap.String("schedule_id", schedule.ID),
		zap.Int("allocations", len(outcome.Allocations)),
	)
}

// replanOutcome rewrites an existing unlocked schedule in place: its
// allocations are replaced wholesale and the aggregate counters refreshed.
// Same best-effort stance as persistOutcome.
func (s *AllocationService) replanOutcome(ctx context.Context, target *models.Schedule, outcome *scheduler.Outcome, resp *dto.PlanResponse) {
	stats, err := json.Marshal(outcome.Stats)
	if err != nil {
		stats = []byte(`{}`)
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		resp.PersistNote = "persist failed: " + err.Error()
		s.logger.Error("begin replan transaction", zap.Error(err))
		return
	}
	if err := s.allocations.DeleteBySchedule(ctx, tx, target.ID); err != nil {
		_ = tx.Rollback()
		resp.PersistNote = "persist failed: " + err.Error()
		s.logger.Error("clear schedule allocations", zap.Error(err))
		return
	}
	if err := s.allocations.BulkCreate(ctx, tx, target.ID, outcome.Allocations); err != nil {
		_ = tx.Rollback()
		resp.PersistNote = "persist failed: " + err.Error()
		s.logger.Error("persist replanned allocations", zap.Error(err))
		return
	}
	if err := s.schedules.UpdateCounts(ctx, tx, target.ID, outcome.Stats.ScheduledCount, outcome.Stats.UnscheduledCount, types.JSONText(stats)); err != nil {
		_ = tx.Rollback()
		resp.PersistNote = "persist failed: " + err.Error()
		s.logger.Error("refresh schedule counts", zap.Error(err))
		return
	}
	if err := tx.Commit(); err != nil {
		resp.PersistNote = "persist failed: " + err.Error()
		s.logger.Error("commit replan transaction", zap.Error(err))
		return
	}

	resp.ScheduleID = target.ID
	resp.Persisted = true
	resp.Allocations = outcome.Allocations
	s.logger.Info("schedule re-planned in place",
		zap.String("schedule_id", target.ID),
		zap.Int("allocations", len(outcome.Allocations)),
	)
}
