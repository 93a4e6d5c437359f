package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/service"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
	"github.com/noah-isme/campus-timetable-api/pkg/response"
)

type scheduleManager interface {
	Get(ctx context.Context, scheduleID string) (*models.Schedule, []models.Allocation, error)
	List(ctx context.Context, query dto.ScheduleQuery) ([]models.Schedule, error)
	Lock(ctx context.Context, scheduleID string) (*models.Schedule, error)
	SetCurrent(ctx context.Context, scheduleID string) (*models.Schedule, error)
}

// ScheduleHandler exposes the schedule lifecycle endpoints.
type ScheduleHandler struct {
	service scheduleManager
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(svc *service.AllocationService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// List godoc
// @Summary List schedules
// @Tags Schedules
// @Produce json
// @Param semester query string false "Semester"
// @Param academicYear query string false "Academic year"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	var query dto.ScheduleQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	schedules, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, nil)
}

// Get godoc
// @Summary Get a schedule with its allocations
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	schedule, allocations, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"schedule": schedule, "allocations": allocations}, nil)
}

// Lock godoc
// @Summary Lock a schedule against allocator writes
// @Description Locking is one-way and idempotent. Only locked schedules can be rendered or promoted to current.
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/lock [post]
func (h *ScheduleHandler) Lock(c *gin.Context) {
	schedule, err := h.service.Lock(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// SetCurrent godoc
// @Summary Promote a locked schedule to the live one
// @Description Exactly one schedule is current at any time; promoting one demotes the rest atomically.
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/current [post]
func (h *ScheduleHandler) SetCurrent(c *gin.Context) {
	schedule, err := h.service.SetCurrent(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}
