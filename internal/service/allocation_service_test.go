package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/scheduler"
	"github.com/noah-isme/campus-timetable-api/pkg/config"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

type stubCatalog struct {
	rooms    []models.Room
	sections []models.Section
	grid     []models.TimeSlot
}

func (s *stubCatalog) ListRooms(context.Context) ([]models.Room, error)        { return s.rooms, nil }
func (s *stubCatalog) ListSections(context.Context) ([]models.Section, error)  { return s.sections, nil }
func (s *stubCatalog) ListTimeSlots(context.Context) ([]models.TimeSlot, error) { return s.grid, nil }

type stubScheduleStore struct {
	byID      map[string]*models.Schedule
	created   []*models.Schedule
	createErr error
	currentID string
}

func (s *stubScheduleStore) Create(_ context.Context, _ sqlx.ExtContext, schedule *models.Schedule) error {
	if s.createErr != nil {
		return s.createErr
	}
	if schedule.ID == "" {
		schedule.ID = "sched-created"
	}
	s.created = append(s.created, schedule)
	return nil
}

func (s *stubScheduleStore) FindByID(_ context.Context, id string) (*models.Schedule, error) {
	if schedule, ok := s.byID[id]; ok {
		copied := *schedule
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubScheduleStore) List(context.Context, string, string, models.Pagination) ([]models.Schedule, error) {
	var out []models.Schedule
	for _, schedule := range s.byID {
		out = append(out, *schedule)
	}
	return out, nil
}

func (s *stubScheduleStore) UpdateLocked(_ context.Context, _ sqlx.ExtContext, id string, locked bool) error {
	schedule, ok := s.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	schedule.IsLocked = locked
	return nil
}

func (s *stubScheduleStore) SetCurrent(_ context.Context, _ sqlx.ExtContext, id string) error {
	s.currentID = id
	return nil
}

func (s *stubScheduleStore) UpdateCounts(_ context.Context, _ sqlx.ExtContext, id string, scheduled, unscheduled int, stats types.JSONText) error {
	schedule, ok := s.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	schedule.ScheduledCount = scheduled
	schedule.UnscheduledCount = unscheduled
	schedule.Stats = stats
	return nil
}

type stubAllocationStore struct {
	bulk    [][]models.Allocation
	deleted []string
	bulkErr error
}

func (s *stubAllocationStore) BulkCreate(_ context.Context, _ sqlx.ExtContext, _ string, allocations []models.Allocation) error {
	if s.bulkErr != nil {
		return s.bulkErr
	}
	s.bulk = append(s.bulk, allocations)
	return nil
}

func (s *stubAllocationStore) DeleteBySchedule(_ context.Context, _ sqlx.ExtContext, scheduleID string) error {
	s.deleted = append(s.deleted, scheduleID)
	return nil
}

func (s *stubAllocationStore) ListBySchedule(context.Context, string) ([]models.Allocation, error) {
	return nil, nil
}

type stubOptimizer struct {
	enabled bool
	resp    *dto.OptimizeResponse
	err     error
	calls   int
}

func (s *stubOptimizer) Enabled() bool { return s.enabled }
func (s *stubOptimizer) Optimize(context.Context, dto.OptimizeRequest) (*dto.OptimizeResponse, error) {
	s.calls++
	return s.resp, s.err
}

type stubRunObserver struct {
	strategies        []string
	optimizerFailures int
}

func (s *stubRunObserver) ObserveAllocatorRun(strategy string, _ time.Duration, _ int) {
	s.strategies = append(s.strategies, strategy)
}
func (s *stubRunObserver) RecordOptimizerFailure() { s.optimizerFailures++ }

func newTxDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func planFixture() (*stubCatalog, config.FallbackConfig) {
	catalog := &stubCatalog{
		rooms: []models.Room{
			{ID: "room-1", Name: "R-101", Capacity: 50, RoomType: models.RoomTypeLecture, College: models.CollegeShared},
		},
		sections: []models.Section{
			{ID: "sec-1", CourseCode: "CS101", SectionCode: "BSCS-1A", StudentCount: 40, LectureHours: 2, TeacherName: "Reyes"},
		},
		grid: halfHourGridFixture("08:00", "17:00"),
	}
	return catalog, config.FallbackConfig{
		ActiveDays:      []int{1, 2, 3, 4, 5},
		LunchMode:       "fixed",
		LunchStart:      "12:00",
		LunchEnd:        "13:00",
		StrictRoomTypes: true,
		NightThreshold:  "19:00",
	}
}

func halfHourGridFixture(from, to string) []models.TimeSlot {
	var grid []models.TimeSlot
	start := scheduler.ParseClock(from)
	end := scheduler.ParseClock(to)
	for start+30 <= end {
		grid = append(grid, models.TimeSlot{
			ID:              scheduler.FormatClock(start),
			StartTime:       scheduler.FormatClock(start),
			EndTime:         scheduler.FormatClock(start + 30),
			DurationMinutes: 30,
		})
		start += 30
	}
	return grid
}

func TestPlanFallsBackWhenOptimizerFails(t *testing.T) {
	catalog, fallbackCfg := planFixture()
	optimizer := &stubOptimizer{enabled: true, err: appErrors.ErrOptimizerUnavailable}
	observer := &stubRunObserver{}

	svc := NewAllocationService(catalog, &stubScheduleStore{}, &stubAllocationStore{}, optimizer, nil, observer, nil, zap.NewNop(), true, config.AnnealingConfig{}, fallbackCfg)

	resp, err := svc.Plan(context.Background(), dto.PlanRequest{Name: "run", Semester: "1", AcademicYear: "2026-2027"})
	require.NoError(t, err)
	assert.Equal(t, StrategyFallback, resp.Strategy)
	assert.Equal(t, 1, optimizer.calls)
	assert.Equal(t, 1, observer.optimizerFailures)
	assert.NotEmpty(t, resp.Allocations)
}

func TestPlanAdoptsOptimizerAnswer(t *testing.T) {
	catalog, fallbackCfg := planFixture()
	roomID := "room-1"
	optimizer := &stubOptimizer{
		enabled: true,
		resp: &dto.OptimizeResponse{
			Assignments: []dto.OptimizeAssignment{
				{SectionID: "sec-1", RoomID: &roomID, DayOfWeek: 1, StartTime: "08:00", EndTime: "10:00"},
			},
			Score: 0.91,
		},
	}

	svc := NewAllocationService(catalog, &stubScheduleStore{}, &stubAllocationStore{}, optimizer, nil, &stubRunObserver{}, nil, zap.NewNop(), true, config.AnnealingConfig{}, fallbackCfg)

	resp, err := svc.Plan(context.Background(), dto.PlanRequest{Name: "run", Semester: "1", AcademicYear: "2026-2027"})
	require.NoError(t, err)
	assert.Equal(t, StrategyOptimizer, resp.Strategy)
	require.Len(t, resp.Allocations, 1)
	assert.Equal(t, "R-101", resp.Allocations[0].RoomName)
	assert.InDelta(t, 0.91, resp.Stats.FinalCost, 0.001)
}

func TestPlanRejectsConflictingOptimizerAnswer(t *testing.T) {
	catalog, fallbackCfg := planFixture()
	catalog.sections = append(catalog.sections, models.Section{
		ID: "sec-2", CourseCode: "CS102", SectionCode: "BSCS-1B", StudentCount: 30, LectureHours: 2, TeacherName: "Cruz",
	})
	roomID := "room-1"
	optimizer := &stubOptimizer{
		enabled: true,
		resp: &dto.OptimizeResponse{
			// Both sections in the same room at the same time.
			Assignments: []dto.OptimizeAssignment{
				{SectionID: "sec-1", RoomID: &roomID, DayOfWeek: 1, StartTime: "08:00", EndTime: "10:00"},
				{SectionID: "sec-2", RoomID: &roomID, DayOfWeek: 1, StartTime: "09:00", EndTime: "11:00"},
			},
		},
	}
	observer := &stubRunObserver{}

	svc := NewAllocationService(catalog, &stubScheduleStore{}, &stubAllocationStore{}, optimizer, nil, observer, nil, zap.NewNop(), true, config.AnnealingConfig{}, fallbackCfg)

	resp, err := svc.Plan(context.Background(), dto.PlanRequest{Name: "run", Semester: "1", AcademicYear: "2026-2027"})
	require.NoError(t, err)
	assert.Equal(t, StrategyFallback, resp.Strategy)
	assert.Equal(t, 1, observer.optimizerFailures)
}

func TestPlanPersistFailureKeepsResult(t *testing.T) {
	catalog, fallbackCfg := planFixture()
	db, mock := newTxDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()
	schedules := &stubScheduleStore{createErr: errors.New("disk full")}

	svc := NewAllocationService(catalog, schedules, &stubAllocationStore{}, &stubOptimizer{}, db, &stubRunObserver{}, nil, zap.NewNop(), false, config.AnnealingConfig{}, fallbackCfg)

	resp, err := svc.Plan(context.Background(), dto.PlanRequest{Name: "run", Semester: "1", AcademicYear: "2026-2027", Persist: true})
	require.NoError(t, err)
	assert.False(t, resp.Persisted)
	assert.Contains(t, resp.PersistNote, "disk full")
	assert.NotEmpty(t, resp.Allocations, "the computed timetable survives a persist failure")
}

func TestPlanPersistsSchedule(t *testing.T) {
	catalog, fallbackCfg := planFixture()
	db, mock := newTxDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	schedules := &stubScheduleStore{}
	allocations := &stubAllocationStore{}

	svc := NewAllocationService(catalog, schedules, allocations, &stubOptimizer{}, db, &stubRunObserver{}, nil, zap.NewNop(), false, config.AnnealingConfig{}, fallbackCfg)

	resp, err := svc.Plan(context.Background(), dto.PlanRequest{Name: "run", Semester: "1", AcademicYear: "2026-2027", Persist: true})
	require.NoError(t, err)
	assert.True(t, resp.Persisted)
	assert.Equal(t, "sched-created", resp.ScheduleID)
	require.Len(t, schedules.created, 1)
	assert.Equal(t, resp.Stats.ScheduledCount, schedules.created[0].ScheduledCount)
	require.Len(t, allocations.bulk, 1)
}

func TestPlanRejectsEmptyRoomCatalog(t *testing.T) {
	catalog, fallbackCfg := planFixture()
	catalog.rooms = nil
	optimizer := &stubOptimizer{enabled: true}

	svc := NewAllocationService(catalog, &stubScheduleStore{}, &stubAllocationStore{}, optimizer, nil, &stubRunObserver{}, nil, zap.NewNop(), true, config.AnnealingConfig{}, fallbackCfg)

	_, err := svc.Plan(context.Background(), dto.PlanRequest{Name: "run", Semester: "1", AcademicYear: "2026-2027"})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "rooms are required")
	assert.Zero(t, optimizer.calls, "no allocator may run against an empty catalog")
}

func TestPlanRejectsEmptySectionCatalog(t *testing.T) {
	catalog, fallbackCfg := planFixture()
	catalog.sections = nil
	optimizer := &stubOptimizer{enabled: true}

	svc := NewAllocationService(catalog, &stubScheduleStore{}, &stubAllocationStore{}, optimizer, nil, &stubRunObserver{}, nil, zap.NewNop(), true, config.AnnealingConfig{}, fallbackCfg)

	_, err := svc.Plan(context.Background(), dto.PlanRequest{Name: "run", Semester: "1", AcademicYear: "2026-2027"})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "sections are required")
	assert.Zero(t, optimizer.calls)
}

func TestAnnealRoomsRejectsEmptyRoomCatalog(t *testing.T) {
	catalog, fallbackCfg := planFixture()
	catalog.rooms = nil

	svc := NewAllocationService(catalog, &stubScheduleStore{}, &stubAllocationStore{}, &stubOptimizer{}, nil, &stubRunObserver{}, nil, zap.NewNop(), false, config.AnnealingConfig{}, fallbackCfg)

	_, err := svc.AnnealRooms(context.Background(), dto.AnnealRequest{Name: "run", Semester: "1", AcademicYear: "2026-2027"})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestPlanRejectsLockedReplanTarget(t *testing.T) {
	catalog, fallbackCfg := planFixture()
	schedules := &stubScheduleStore{byID: map[string]*models.Schedule{
		"sched-1": {ID: "sched-1", IsLocked: true},
	}}
	optimizer := &stubOptimizer{enabled: true}

	svc := NewAllocationService(catalog, schedules, &stubAllocationStore{}, optimizer, nil, &stubRunObserver{}, nil, zap.NewNop(), true, config.AnnealingConfig{}, fallbackCfg)

	_, err := svc.Plan(context.Background(), dto.PlanRequest{Name: "run", Semester: "1", AcademicYear: "2026-2027", ScheduleID: "sched-1", Persist: true})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrScheduleLocked.Code, appErr.Code)
	assert.Zero(t, optimizer.calls, "a locked target stops the run before any allocator work")
}

func TestPlanReplanReplacesAllocationsAndRefreshesCounts(t *testing.T) {
	catalog, fallbackCfg := planFixture()
	db, mock := newTxDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	schedules := &stubScheduleStore{byID: map[string]*models.Schedule{
		"sched-1": {ID: "sched-1", Name: "old run", ScheduledCount: 99, UnscheduledCount: 99},
	}}
	allocations := &stubAllocationStore{}

	svc := NewAllocationService(catalog, schedules, allocations, &stubOptimizer{}, db, &stubRunObserver{}, nil, zap.NewNop(), false, config.AnnealingConfig{}, fallbackCfg)

	resp, err := svc.Plan(context.Background(), dto.PlanRequest{Name: "run", Semester: "1", AcademicYear: "2026-2027", ScheduleID: "sched-1", Persist: true})
	require.NoError(t, err)
	assert.True(t, resp.Persisted)
	assert.Equal(t, "sched-1", resp.ScheduleID)
	assert.Empty(t, schedules.created, "re-planning rewrites the target, never creates a schedule")
	assert.Equal(t, []string{"sched-1"}, allocations.deleted)
	require.Len(t, allocations.bulk, 1)
	assert.Equal(t, resp.Stats.ScheduledCount, schedules.byID["sched-1"].ScheduledCount)
	assert.Equal(t, resp.Stats.UnscheduledCount, schedules.byID["sched-1"].UnscheduledCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnealRoomsUsesSeed(t *testing.T) {
	catalog := &stubCatalog{
		rooms: []models.Room{
			{ID: "fit", Capacity: 45},
			{ID: "big", Capacity: 200},
		},
		sections: []models.Section{{
			ID: "sec-1", CourseCode: "CS101", SectionCode: "BSCS-1A", StudentCount: 40, TeacherName: "Reyes",
			DayOfWeek: intPtrFixture(1), StartTime: strPtrFixture("08:00"), EndTime: strPtrFixture("09:30"),
		}},
	}

	svc := NewAllocationService(catalog, &stubScheduleStore{}, &stubAllocationStore{}, &stubOptimizer{}, nil, &stubRunObserver{}, nil, zap.NewNop(), false, config.AnnealingConfig{MaxIterations: 50}, config.FallbackConfig{})

	resp, err := svc.AnnealRooms(context.Background(), dto.AnnealRequest{Name: "run", Semester: "1", AcademicYear: "2026-2027", Seed: 7})
	require.NoError(t, err)
	assert.Equal(t, StrategyAnnealing, resp.Strategy)
	require.Len(t, resp.Allocations, 1)
	assert.Equal(t, "fit", *resp.Allocations[0].RoomID)
}

func TestLockIsIdempotent(t *testing.T) {
	schedules := &stubScheduleStore{byID: map[string]*models.Schedule{
		"sched-1": {ID: "sched-1", IsLocked: true},
	}}
	svc := NewAllocationService(nil, schedules, nil, nil, nil, nil, nil, zap.NewNop(), false, config.AnnealingConfig{}, config.FallbackConfig{})

	schedule, err := svc.Lock(context.Background(), "sched-1")
	require.NoError(t, err)
	assert.True(t, schedule.IsLocked)
}

func TestSetCurrentRequiresLock(t *testing.T) {
	schedules := &stubScheduleStore{byID: map[string]*models.Schedule{
		"sched-1": {ID: "sched-1", IsLocked: false},
	}}
	svc := NewAllocationService(nil, schedules, nil, nil, nil, nil, nil, zap.NewNop(), false, config.AnnealingConfig{}, config.FallbackConfig{})

	_, err := svc.SetCurrent(context.Background(), "sched-1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrScheduleNotLocked.Code, appErr.Code)
}

func TestSetCurrentFlipsFlag(t *testing.T) {
	schedules := &stubScheduleStore{byID: map[string]*models.Schedule{
		"sched-1": {ID: "sched-1", IsLocked: true},
	}}
	db, mock := newTxDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	svc := NewAllocationService(nil, schedules, nil, nil, db, nil, nil, zap.NewNop(), false, config.AnnealingConfig{}, config.FallbackConfig{})

	schedule, err := svc.SetCurrent(context.Background(), "sched-1")
	require.NoError(t, err)
	assert.True(t, schedule.IsCurrent)
	assert.Equal(t, "sched-1", schedules.currentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func intPtrFixture(v int) *int       { return &v }
func strPtrFixture(s string) *string { return &s }
