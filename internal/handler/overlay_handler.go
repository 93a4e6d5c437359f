package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/service"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
	"github.com/noah-isme/campus-timetable-api/pkg/export"
	"github.com/noah-isme/campus-timetable-api/pkg/response"
)

type weekOverlay interface {
	RenderWeek(ctx context.Context, scheduleID, week string) (*dto.RenderedWeek, error)
	MarkAbsence(ctx context.Context, req dto.MarkAbsenceRequest) (*models.Absence, error)
	ReviewAbsence(ctx context.Context, absenceID string, req dto.ReviewAbsenceRequest) (*models.Absence, error)
	RequestMakeup(ctx context.Context, req dto.MakeupRequestCreate) (*models.MakeupRequest, error)
	ReviewMakeup(ctx context.Context, requestID string, req dto.ReviewMakeupRequest) (*models.MakeupRequest, error)
	UpsertOverride(ctx context.Context, scheduleID string, req dto.OverrideRequest) (*models.Override, error)
	ResetWeek(ctx context.Context, scheduleID, week string) (int64, error)
	WeekAvailability(ctx context.Context, scheduleID, week string, query dto.AvailabilityQuery, grid []models.TimeSlot) ([]dto.AvailabilityCell, error)
}

type timeSlotLister interface {
	ListTimeSlots(ctx context.Context) ([]models.TimeSlot, error)
}

// OverlayHandler exposes the live weekly layer endpoints.
type OverlayHandler struct {
	service weekOverlay
	slots   timeSlotLister
}

// NewOverlayHandler constructs the handler.
func NewOverlayHandler(svc *service.OverlayService, slots timeSlotLister) *OverlayHandler {
	return &OverlayHandler{service: svc, slots: slots}
}

// RenderWeek godoc
// @Summary Render the live view of one schedule week
// @Description Base allocations with overrides applied, absences and approved makeup sessions attached. Pass "current" as the schedule id to target the live schedule.
// @Tags Overlay
// @Produce json
// @Param id path string true "Schedule ID or 'current'"
// @Param week path string true "Any date of the week (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/weeks/{week} [get]
func (h *OverlayHandler) RenderWeek(c *gin.Context) {
	week, err := h.service.RenderWeek(c.Request.Context(), c.Param("id"), c.Param("week"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, week, nil)
}

// ExportWeek godoc
// @Summary Export a schedule week as an iCalendar feed
// @Tags Overlay
// @Produce plain
// @Param id path string true "Schedule ID or 'current'"
// @Param week path string true "Any date of the week (YYYY-MM-DD)"
// @Success 200 {string} string "text/calendar payload"
// @Router /schedules/{id}/weeks/{week}/ical [get]
func (h *OverlayHandler) ExportWeek(c *gin.Context) {
	week, err := h.service.RenderWeek(c.Request.Context(), c.Param("id"), c.Param("week"))
	if err != nil {
		response.Error(c, err)
		return
	}
	feed, err := export.WeekCalendar(week)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "render calendar"))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="week-`+week.WeekStart+`.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(feed))
}

// Availability godoc
// @Summary Probe free/busy cells for a week
// @Description Checks every (day, slot) cell of the week for the given room, teacher and student group at once.
// @Tags Overlay
// @Produce json
// @Param id path string true "Schedule ID or 'current'"
// @Param week path string true "Any date of the week (YYYY-MM-DD)"
// @Param roomId query string false "Room ID"
// @Param teacherName query string false "Teacher name"
// @Param sectionCode query string false "Section code"
// @Param duration query int false "Candidate duration in minutes"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/weeks/{week}/availability [get]
func (h *OverlayHandler) Availability(c *gin.Context) {
	var query dto.AvailabilityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	grid, err := h.slots.ListTimeSlots(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	cells, err := h.service.WeekAvailability(c.Request.Context(), c.Param("id"), c.Param("week"), query, grid)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cells, nil)
}

// UpsertOverride godoc
// @Summary Create or replace a week-scoped override
// @Description One override per (schedule, allocation, week); a second edit replaces the first wholesale.
// @Tags Overlay
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID or 'current'"
// @Param payload body dto.OverrideRequest true "Override payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/overrides [put]
func (h *OverlayHandler) UpsertOverride(c *gin.Context) {
	var req dto.OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid override payload"))
		return
	}
	override, err := h.service.UpsertOverride(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, override, nil)
}

// ResetWeek godoc
// @Summary Remove every override of a week
// @Description Restores the base schedule for the week. Absence and makeup records are kept.
// @Tags Overlay
// @Produce json
// @Param id path string true "Schedule ID or 'current'"
// @Param week path string true "Any date of the week (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/weeks/{week}/overrides [delete]
func (h *OverlayHandler) ResetWeek(c *gin.Context) {
	deleted, err := h.service.ResetWeek(c.Request.Context(), c.Param("id"), c.Param("week"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"overridesRemoved": deleted}, nil)
}

// MarkAbsence godoc
// @Summary Record a faculty absence for one session date
// @Description At most one absence per (allocation, date); duplicates return 409.
// @Tags Overlay
// @Accept json
// @Produce json
// @Param payload body dto.MarkAbsenceRequest true "Absence payload"
// @Success 201 {object} response.Envelope
// @Router /absences [post]
func (h *OverlayHandler) MarkAbsence(c *gin.Context) {
	var req dto.MarkAbsenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid absence payload"))
		return
	}
	absence, err := h.service.MarkAbsence(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, absence)
}

// ReviewAbsence godoc
// @Summary Update an absence's review status
// @Tags Overlay
// @Accept json
// @Produce json
// @Param id path string true "Absence ID"
// @Param payload body dto.ReviewAbsenceRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Router /absences/{id} [patch]
func (h *OverlayHandler) ReviewAbsence(c *gin.Context) {
	var req dto.ReviewAbsenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}
	absence, err := h.service.ReviewAbsence(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, absence, nil)
}

// RequestMakeup godoc
// @Summary File a makeup session request
// @Description Created in pending status. The conflict check runs at approval time, not here.
// @Tags Overlay
// @Accept json
// @Produce json
// @Param payload body dto.MakeupRequestCreate true "Makeup request payload"
// @Success 201 {object} response.Envelope
// @Router /makeup-requests [post]
func (h *OverlayHandler) RequestMakeup(c *gin.Context) {
	var req dto.MakeupRequestCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid makeup payload"))
		return
	}
	request, err := h.service.RequestMakeup(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// ReviewMakeup godoc
// @Summary Approve or reject a pending makeup request
// @Description Approval runs the conflict detector against the target week; force=true approves despite conflicts. Approved and rejected are terminal.
// @Tags Overlay
// @Accept json
// @Produce json
// @Param id path string true "Makeup request ID"
// @Param payload body dto.ReviewMakeupRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Router /makeup-requests/{id} [patch]
func (h *OverlayHandler) ReviewMakeup(c *gin.Context) {
	var req dto.ReviewMakeupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}
	request, err := h.service.ReviewMakeup(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}
