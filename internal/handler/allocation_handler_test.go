package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

type allocationPlannerMock struct {
	planResp *dto.PlanResponse
	planErr  error
}

func (m *allocationPlannerMock) Plan(ctx context.Context, req dto.PlanRequest) (*dto.PlanResponse, error) {
	if m.planErr != nil {
		return nil, m.planErr
	}
	return m.planResp, nil
}

func (m *allocationPlannerMock) AnnealRooms(ctx context.Context, req dto.AnnealRequest) (*dto.PlanResponse, error) {
	return m.planResp, nil
}

func postJSON(t *testing.T, payload interface{}) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var body bytes.Buffer
	if raw, ok := payload.(string); ok {
		body.WriteString(raw)
	} else {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req, err := http.NewRequest(http.MethodPost, "/allocations/plan", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return w, c
}

func TestAllocationHandlerPlanRejectsMalformedBody(t *testing.T) {
	handler := &AllocationHandler{service: &allocationPlannerMock{}}
	w, c := postJSON(t, "{not json")

	handler.Plan(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAllocationHandlerPlanReturnsStrategy(t *testing.T) {
	handler := &AllocationHandler{service: &allocationPlannerMock{
		planResp: &dto.PlanResponse{Strategy: "fallback"},
	}}
	w, c := postJSON(t, dto.PlanRequest{Name: "Draft", Semester: "1st", AcademicYear: "2026-2027"})

	handler.Plan(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"strategy":"fallback"`)
}

func TestAllocationHandlerPlanSurfacesConflicts(t *testing.T) {
	handler := &AllocationHandler{service: &allocationPlannerMock{
		planErr: &models.AllocationConflictError{
			Message: "placement conflicts with the existing week",
			Conflicts: []models.AllocationConflict{
				{AllocationID: "alloc-1", Dimension: "room", Description: "room busy"},
			},
		},
	}}
	w, c := postJSON(t, dto.PlanRequest{Name: "Draft", Semester: "1st", AcademicYear: "2026-2027"})

	handler.Plan(c)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), `"conflicts"`)
	require.Contains(t, w.Body.String(), "alloc-1")
}

func TestAllocationHandlerPlanMapsTypedErrors(t *testing.T) {
	handler := &AllocationHandler{service: &allocationPlannerMock{
		planErr: appErrors.Clone(appErrors.ErrValidation, "no sections to schedule"),
	}}
	w, c := postJSON(t, dto.PlanRequest{Name: "Draft", Semester: "1st", AcademicYear: "2026-2027"})

	handler.Plan(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "no sections to schedule")
}
