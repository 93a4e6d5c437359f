package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/scheduler"
	"github.com/noah-isme/campus-timetable-api/pkg/config"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

const weekDateLayout = "2006-01-02"

type scheduleReader interface {
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	FindCurrent(ctx context.Context) (*models.Schedule, error)
}

type allocationReader interface {
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.Allocation, error)
	FindByID(ctx context.Context, id string) (*models.Allocation, error)
}

type overrideStore interface {
	Upsert(ctx context.Context, override *models.Override) error
	ListForWeek(ctx context.Context, scheduleID string, weekStart time.Time) ([]models.Override, error)
	DeleteWeek(ctx context.Context, scheduleID string, weekStart time.Time) (int64, error)
}

type absenceStore interface {
	Create(ctx context.Context, absence *models.Absence) error
	FindByID(ctx context.Context, id string) (*models.Absence, error)
	ListByScheduleWeek(ctx context.Context, scheduleID string, weekStart time.Time) ([]models.Absence, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

type makeupStore interface {
	Create(ctx context.Context, request *models.MakeupRequest) error
	FindByID(ctx context.Context, id string) (*models.MakeupRequest, error)
	UpdateReview(ctx context.Context, id, status, adminNote string) error
	ListForScheduleWeek(ctx context.Context, scheduleID string, weekStart time.Time) ([]models.MakeupRequest, error)
}

type renderCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Publish(ctx context.Context, channel string, value interface{})
}

type overlayObserver interface {
	RecordCacheOperation(hit bool)
	RecordOverlayEdit(kind string)
}

// OverlayService renders and mutates the live weekly layer on top of a locked
// schedule. The base allocations are never modified; every change is a
// week-scoped record layered on at render time.
type OverlayService struct {
	schedules   scheduleReader
	allocations allocationReader
	overrides   overrideStore
	absences    absenceStore
	makeups     makeupStore
	cache       renderCache
	metrics     overlayObserver
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         config.OverlayConfig
}

// NewOverlayService wires the weekly overlay workflow.
func NewOverlayService(
	schedules scheduleReader,
	allocations allocationReader,
	overrides overrideStore,
	absences absenceStore,
	makeups makeupStore,
	cache renderCache,
	metrics overlayObserver,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg config.OverlayConfig,
) *OverlayService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverlayService{
		schedules:   schedules,
		allocations: allocations,
		overrides:   overrides,
		absences:    absences,
		makeups:     makeups,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
	}
}

// NormalizeWeekStart parses a date and rolls it back to the Monday of its
// week, midnight UTC. Every weekly key goes through here so "Wednesday" and
// "Monday" of the same week address the same overlay.
func NormalizeWeekStart(raw string) (time.Time, error) {
	parsed, err := time.Parse(weekDateLayout, raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "week start must be formatted YYYY-MM-DD")
	}
	offset := (int(parsed.Weekday()) + 6) % 7
	monday := parsed.AddDate(0, 0, -offset)
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, time.UTC), nil
}

func renderCacheKey(scheduleID string, weekStart time.Time) string {
	return fmt.Sprintf("overlay:week:%s:%s", scheduleID, weekStart.Format(weekDateLayout))
}

// RenderWeek composes the live view of one schedule week: locked base
// allocations, overrides applied on top, absences and approved makeup
// sessions attached.
func (s *OverlayService) RenderWeek(ctx context.Context, scheduleID, weekRaw string) (*dto.RenderedWeek, error) {
	schedule, err := s.loadLockedSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	weekStart, err := NormalizeWeekStart(weekRaw)
	if err != nil {
		return nil, err
	}

	key := renderCacheKey(schedule.ID, weekStart)
	var cached dto.RenderedWeek
	if s.cache != nil {
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheOperation(true)
			}
			cached.FromCache = true
			return &cached, nil
		}
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(false)
		}
	}

	week, err := s.composeWeek(ctx, schedule.ID, weekStart)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, week, s.cfg.RenderCacheTTL); err != nil {
			s.logger.Warn("cache rendered week", zap.Error(err))
		}
	}
	return week, nil
}

// MarkAbsence records a faculty absence for one session date. A duplicate for
// the same allocation and date is rejected.
func (s *OverlayService) MarkAbsence(ctx context.Context, req dto.MarkAbsenceRequest) (*models.Absence, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid absence request")
	}
	date, err := time.Parse(weekDateLayout, req.AbsenceDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "absence date must be formatted YYYY-MM-DD")
	}

	allocation, err := s.loadAllocation(ctx, req.AllocationID)
	if err != nil {
		return nil, err
	}

	absence := &models.Absence{
		AllocationID: allocation.ID,
		AbsenceDate:  date,
		FacultyID:    req.FacultyID,
		Reason:       req.Reason,
	}
	if err := s.absences.Create(ctx, absence); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "record absence")
	}

	s.invalidateWeek(ctx, allocation.ScheduleID, date)
	if s.cache != nil && s.cfg.NotificationChannel != "" {
		s.cache.Publish(ctx, s.cfg.NotificationChannel, map[string]string{
			"event":        "absence_marked",
			"allocationId": allocation.ID,
			"courseCode":   allocation.CourseCode,
			"sectionCode":  allocation.SectionCode,
			"date":         req.AbsenceDate,
		})
	}
	if s.metrics != nil {
		s.metrics.RecordOverlayEdit("absence")
	}
	s.logger.Info("absence marked",
		zap.String("allocation_id", allocation.ID),
		zap.String("date", req.AbsenceDate),
	)
	return absence, nil
}

// ReviewAbsence moves an absence between confirmed and reviewed.
func (s *OverlayService) ReviewAbsence(ctx context.Context, absenceID string, req dto.ReviewAbsenceRequest) (*models.Absence, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid absence review")
	}
	if err := s.absences.UpdateStatus(ctx, absenceID, req.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "review absence")
	}
	return s.absences.FindByID(ctx, absenceID)
}

// RequestMakeup files a substitute-session request in pending status. No
// conflict check runs here; the check happens at approval time, against the
// week the session would land in.
func (s *OverlayService) RequestMakeup(ctx context.Context, req dto.MakeupRequestCreate) (*models.MakeupRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid makeup request")
	}
	date, err := time.Parse(weekDateLayout, req.RequestedDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "requested date must be formatted YYYY-MM-DD")
	}
	if scheduler.ParseClock(req.StartTime) < 0 || scheduler.ParseClock(req.EndTime) <= scheduler.ParseClock(req.StartTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "makeup times must be HH:MM with end after start")
	}

	allocation, err := s.loadAllocation(ctx, req.AllocationID)
	if err != nil {
		return nil, err
	}

	request := &models.MakeupRequest{
		AllocationID:  allocation.ID,
		FacultyID:     req.FacultyID,
		RequestedDate: date,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		RoomID:        req.RoomID,
		Reason:        req.Reason,
	}
	if req.OriginalAbsenceDate != nil {
		original, err := time.Parse(weekDateLayout, *req.OriginalAbsenceDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "original absence date must be formatted YYYY-MM-DD")
		}
		request.OriginalAbsenceDate = &original
	}

	if err := s.makeups.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "file makeup request")
	}
	if s.metrics != nil {
		s.metrics.RecordOverlayEdit("makeup_request")
	}
	return request, nil
}

// ReviewMakeup applies the admin decision to a pending request. Approval runs
// the conflict detector against the target week's effective allocations;
// Force overrides a conflicting verdict and is recorded in the admin note.
func (s *OverlayService) ReviewMakeup(ctx context.Context, requestID string, req dto.ReviewMakeupRequest) (*models.MakeupRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid makeup review")
	}

	request, err := s.makeups.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load makeup request")
	}
	if request.Status != models.MakeupStatusPending {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "makeup request is already "+request.Status)
	}

	allocation, err := s.loadAllocation(ctx, request.AllocationID)
	if err != nil {
		return nil, err
	}

	adminNote := req.AdminNote
	if req.Status == models.MakeupStatusApproved {
		report, err := s.checkMakeupConflicts(ctx, allocation, request)
		if err != nil {
			return nil, err
		}
		if report.HasConflict() {
			if !req.Force {
				return nil, &models.AllocationConflictError{
					Message:   "makeup session conflicts with the target week",
					Conflicts: report.Conflicts(),
				}
			}
			adminNote = "approved despite conflicts. " + adminNote
		}
	}

	if err := s.makeups.UpdateReview(ctx, requestID, req.Status, adminNote); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "makeup request is no longer pending")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "review makeup request")
	}

	s.invalidateWeek(ctx, allocation.ScheduleID, request.RequestedDate)
	if s.metrics != nil {
		s.metrics.RecordOverlayEdit("makeup_review")
	}
	return s.makeups.FindByID(ctx, requestID)
}

// UpsertOverride creates or replaces the week-scoped override for one
// allocation. The effective placement is conflict-checked against the rest of
// the week with the allocation's own base row excluded.
func (s *OverlayService) UpsertOverride(ctx context.Context, scheduleID string, req dto.OverrideRequest) (*models.Override, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid override request")
	}
	schedule, err := s.loadLockedSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	weekStart, err := NormalizeWeekStart(req.WeekStart)
	if err != nil {
		return nil, err
	}

	allocation, err := s.loadAllocation(ctx, req.AllocationID)
	if err != nil {
		return nil, err
	}
	if allocation.ScheduleID != schedule.ID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "allocation does not belong to this schedule")
	}

	effective := applyOverrideFields(*allocation, req.DayOfWeek, req.StartTime, req.EndTime, req.RoomID)
	start := scheduler.ParseClock(effective.StartTime)
	end := scheduler.ParseClock(effective.EndTime)
	if start < 0 || end <= start {
		return nil, appErrors.Clone(appErrors.ErrValidation, "override times must be HH:MM with end after start")
	}

	others, err := s.effectiveAllocations(ctx, schedule.ID, weekStart)
	if err != nil {
		return nil, err
	}
	candidate := scheduler.Candidate{
		DayOfWeek:   effective.DayOfWeek,
		Start:       start,
		End:         end,
		TeacherName: effective.TeacherName,
		SectionCode: effective.SectionCode,
	}
	if effective.RoomID != nil {
		candidate.RoomID = *effective.RoomID
	}
	exclude := map[string]struct{}{allocation.ID: {}}
	if report := scheduler.Check(others, candidate, exclude); report.HasConflict() {
		return nil, &models.AllocationConflictError{
			Message:   "override conflicts with the rest of the week",
			Conflicts: report.Conflicts(),
		}
	}

	override := &models.Override{
		ScheduleID:   schedule.ID,
		AllocationID: allocation.ID,
		WeekStart:    weekStart,
		DayOfWeek:    req.DayOfWeek,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		RoomID:       req.RoomID,
		Building:     req.Building,
		Note:         req.Note,
	}
	if err := s.overrides.Upsert(ctx, override); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "save override")
	}

	s.invalidateWeek(ctx, schedule.ID, weekStart)
	if s.metrics != nil {
		s.metrics.RecordOverlayEdit("override")
	}
	s.logger.Info("override saved",
		zap.String("schedule_id", schedule.ID),
		zap.String("allocation_id", allocation.ID),
		zap.Time("week_start", weekStart),
	)
	return override, nil
}

// ResetWeek drops every override of a week, restoring the base schedule.
// Absence and makeup records are history and survive the reset.
func (s *OverlayService) ResetWeek(ctx context.Context, scheduleID, weekRaw string) (int64, error) {
	schedule, err := s.loadLockedSchedule(ctx, scheduleID)
	if err != nil {
		return 0, err
	}
	weekStart, err := NormalizeWeekStart(weekRaw)
	if err != nil {
		return 0, err
	}

	deleted, err := s.overrides.DeleteWeek(ctx, schedule.ID, weekStart)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "reset week")
	}

	s.invalidateWeek(ctx, schedule.ID, weekStart)
	if s.metrics != nil {
		s.metrics.RecordOverlayEdit("reset")
	}
	s.logger.Info("week reset",
		zap.String("schedule_id", schedule.ID),
		zap.Time("week_start", weekStart),
		zap.Int64("overrides_removed", deleted),
	)
	return deleted, nil
}

// WeekAvailability probes every (day, slot) cell of the week for the given
// room/teacher/section combination and reports which are free.
func (s *OverlayService) WeekAvailability(ctx context.Context, scheduleID, weekRaw string, query dto.AvailabilityQuery, grid []models.TimeSlot) ([]dto.AvailabilityCell, error) {
	schedule, err := s.loadLockedSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	weekStart, err := NormalizeWeekStart(weekRaw)
	if err != nil {
		return nil, err
	}

	effective, err := s.effectiveAllocations(ctx, schedule.ID, weekStart)
	if err != nil {
		return nil, err
	}

	duration := query.Duration
	if duration <= 0 {
		duration = 60
	}
	candidate := scheduler.Candidate{
		RoomID:      query.RoomID,
		TeacherName: query.TeacherName,
		SectionCode: query.SectionCode,
		Start:       0,
		End:         duration,
	}

	days := []int{1, 2, 3, 4, 5, 6, 7}
	cells := scheduler.WeekGrid(effective, days, grid, candidate, nil)

	result := make([]dto.AvailabilityCell, 0, len(cells))
	for _, day := range days {
		for _, slot := range grid {
			report := cells[scheduler.GridCell{DayOfWeek: day, SlotID: slot.ID}]
			cell := dto.AvailabilityCell{
				DayOfWeek: day,
				SlotID:    slot.ID,
				StartTime: slot.StartTime,
				Free:      !report.HasConflict(),
			}
			for _, conflict := range report.Conflicts() {
				cell.Reasons = append(cell.Reasons, conflict.Description)
			}
			result = append(result, cell)
		}
	}
	return result, nil
}

func (s *OverlayService) loadLockedSchedule(ctx context.Context, scheduleID string) (*models.Schedule, error) {
	var (
		schedule *models.Schedule
		err      error
	)
	if scheduleID == "" || scheduleID == "current" {
		schedule, err = s.schedules.FindCurrent(ctx)
	} else {
		schedule, err = s.schedules.FindByID(ctx, scheduleID)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load schedule")
	}
	if !schedule.IsLocked {
		return nil, appErrors.ErrScheduleNotLocked
	}
	return schedule, nil
}

func (s *OverlayService) loadAllocation(ctx context.Context, id string) (*models.Allocation, error) {
	allocation, err := s.allocations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "allocation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load allocation")
	}
	return allocation, nil
}

// effectiveAllocations returns the week's base allocations with overrides
// already applied, which is what every overlay conflict check runs against.
func (s *OverlayService) effectiveAllocations(ctx context.Context, scheduleID string, weekStart time.Time) ([]models.Allocation, error) {
	base, err := s.allocations.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load allocations")
	}
	overrides, err := s.overrides.ListForWeek(ctx, scheduleID, weekStart)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load overrides")
	}

	byAllocation := make(map[string]models.Override, len(overrides))
	for _, override := range overrides {
		byAllocation[override.AllocationID] = override
	}
	result := make([]models.Allocation, 0, len(base))
	for _, allocation := range base {
		if override, ok := byAllocation[allocation.ID]; ok {
			allocation = applyOverrideFields(allocation, override.DayOfWeek, override.StartTime, override.EndTime, override.RoomID)
			if override.Building != nil {
				allocation.Building = *override.Building
			}
		}
		result = append(result, allocation)
	}
	return result, nil
}

func (s *OverlayService) composeWeek(ctx context.Context, scheduleID string, weekStart time.Time) (*dto.RenderedWeek, error) {
	effective, err := s.effectiveAllocations(ctx, scheduleID, weekStart)
	if err != nil {
		return nil, err
	}
	overrides, err := s.overrides.ListForWeek(ctx, scheduleID, weekStart)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load overrides")
	}
	absences, err := s.absences.ListByScheduleWeek(ctx, scheduleID, weekStart)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load absences")
	}
	makeups, err := s.makeups.ListForScheduleWeek(ctx, scheduleID, weekStart)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load makeup requests")
	}

	overrideByAllocation := make(map[string]models.Override, len(overrides))
	for _, override := range overrides {
		overrideByAllocation[override.AllocationID] = override
	}
	absenceByAllocation := make(map[string]models.Absence, len(absences))
	for _, absence := range absences {
		absenceByAllocation[absence.AllocationID] = absence
	}

	week := &dto.RenderedWeek{
		ScheduleID: scheduleID,
		WeekStart:  weekStart.Format(weekDateLayout),
	}
	for _, allocation := range effective {
		rendered := dto.RenderedAllocation{
			AllocationID: allocation.ID,
			SectionID:    allocation.SectionID,
			CourseCode:   allocation.CourseCode,
			CourseName:   allocation.CourseName,
			SectionCode:  allocation.SectionCode,
			TeacherName:  allocation.TeacherName,
			RoomID:       allocation.RoomID,
			RoomName:     allocation.RoomName,
			Building:     allocation.Building,
			DayOfWeek:    allocation.DayOfWeek,
			StartTime:    allocation.StartTime,
			EndTime:      allocation.EndTime,
		}
		if override, ok := overrideByAllocation[allocation.ID]; ok {
			rendered.Overridden = true
			rendered.OverrideNote = override.Note
		}
		if absence, ok := absenceByAllocation[allocation.ID]; ok {
			a := absence
			rendered.Absence = &a
		}
		week.Allocations = append(week.Allocations, rendered)
	}

	allocationByID := make(map[string]models.Allocation, len(effective))
	for _, allocation := range effective {
		allocationByID[allocation.ID] = allocation
	}
	for _, makeup := range makeups {
		if makeup.Status != models.MakeupStatusApproved {
			continue
		}
		m := makeup
		day := int(makeup.RequestedDate.Weekday())
		if day == 0 {
			day = 7
		}
		rendered := dto.RenderedAllocation{
			AllocationID: makeup.AllocationID,
			DayOfWeek:    day,
			StartTime:    makeup.StartTime,
			EndTime:      makeup.EndTime,
			RoomID:       makeup.RoomID,
			Makeup:       &m,
		}
		if base, ok := allocationByID[makeup.AllocationID]; ok {
			rendered.SectionID = base.SectionID
			rendered.CourseCode = base.CourseCode
			rendered.CourseName = base.CourseName
			rendered.SectionCode = base.SectionCode
			rendered.TeacherName = base.TeacherName
		}
		week.Makeups = append(week.Makeups, rendered)
	}
	return week, nil
}

// checkMakeupConflicts probes the requested session against the effective
// allocations of the week it falls in.
func (s *OverlayService) checkMakeupConflicts(ctx context.Context, allocation *models.Allocation, request *models.MakeupRequest) (scheduler.ConflictReport, error) {
	weekStart, err := NormalizeWeekStart(request.RequestedDate.Format(weekDateLayout))
	if err != nil {
		return scheduler.ConflictReport{}, err
	}
	effective, err := s.effectiveAllocations(ctx, allocation.ScheduleID, weekStart)
	if err != nil {
		return scheduler.ConflictReport{}, err
	}

	day := int(request.RequestedDate.Weekday())
	if day == 0 {
		day = 7
	}
	candidate := scheduler.Candidate{
		DayOfWeek:   day,
		Start:       scheduler.ParseClock(request.StartTime),
		End:         scheduler.ParseClock(request.EndTime),
		TeacherName: allocation.TeacherName,
		SectionCode: allocation.SectionCode,
	}
	if request.RoomID != nil {
		candidate.RoomID = *request.RoomID
	}
	return scheduler.Check(effective, candidate, nil), nil
}

func (s *OverlayService) invalidateWeek(ctx context.Context, scheduleID string, date time.Time) {
	if s.cache == nil {
		return
	}
	weekStart, err := NormalizeWeekStart(date.Format(weekDateLayout))
	if err != nil {
		return
	}
	if err := s.cache.Delete(ctx, renderCacheKey(scheduleID, weekStart)); err != nil {
		s.logger.Warn("invalidate rendered week", zap.Error(err))
	}
}

// applyOverrideFields merges optional replacement fields over a base
// allocation, leaving omitted fields untouched.
func applyOverrideFields(base models.Allocation, day *int, start, end, roomID *string) models.Allocation {
	if day != nil {
		base.DayOfWeek = *day
	}
	if start != nil {
		base.StartTime = *start
	}
	if end != nil {
		base.EndTime = *end
	}
	if roomID != nil {
		base.RoomID = roomID
		base.RoomName = ""
		base.Building = ""
	}
	return base
}
