// Package handler exposes the HTTP surface of the timetable service.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/service"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
	"github.com/noah-isme/campus-timetable-api/pkg/response"
)

// respondError renders a conflict report as a 409 with the colliding
// allocations attached; everything else follows the common error envelope.
func respondError(c *gin.Context, err error) {
	var conflictErr *models.AllocationConflictError
	if errors.As(err, &conflictErr) {
		c.Header("Cache-Control", "no-store")
		c.JSON(http.StatusConflict, response.Envelope{
			Error: appErrors.New(appErrors.ErrConflict.Code, http.StatusConflict, conflictErr.Message),
			Data:  gin.H{"conflicts": conflictErr.Conflicts},
		})
		return
	}
	response.Error(c, err)
}

type allocationPlanner interface {
	Plan(ctx context.Context, req dto.PlanRequest) (*dto.PlanResponse, error)
	AnnealRooms(ctx context.Context, req dto.AnnealRequest) (*dto.PlanResponse, error)
}

// AllocationHandler exposes the allocation engine endpoints.
type AllocationHandler struct {
	service allocationPlanner
}

// NewAllocationHandler constructs the handler.
func NewAllocationHandler(svc *service.AllocationService) *AllocationHandler {
	return &AllocationHandler{service: svc}
}

// Plan godoc
// @Summary Build a full timetable
// @Description Consults the external optimizing service first; any failure falls back to the deterministic constraint allocator.
// @Tags Allocations
// @Accept json
// @Produce json
// @Param payload body dto.PlanRequest true "Plan request"
// @Success 200 {object} response.Envelope
// @Router /allocations/plan [post]
func (h *AllocationHandler) Plan(c *gin.Context) {
	var req dto.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid plan payload"))
		return
	}
	result, err := h.service.Plan(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Anneal godoc
// @Summary Assign rooms to slot-fixed sections
// @Description Runs the simulated-annealing room assigner over sections whose meeting times are already fixed.
// @Tags Allocations
// @Accept json
// @Produce json
// @Param payload body dto.AnnealRequest true "Anneal request"
// @Success 200 {object} response.Envelope
// @Router /allocations/anneal [post]
func (h *AllocationHandler) Anneal(c *gin.Context) {
	var req dto.AnnealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid anneal payload"))
		return
	}
	result, err := h.service.AnnealRooms(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
