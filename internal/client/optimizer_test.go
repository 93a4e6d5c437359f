package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

func optimizerPayload() dto.OptimizeRequest {
	return dto.OptimizeRequest{
		Sections: []dto.OptimizeSection{{ID: "sec-1", CourseCode: "CS101", SectionCode: "BSCS-1A", StudentCount: 40, WeeklyHours: 3}},
		Rooms:    []dto.OptimizeRoom{{ID: "room-1", Name: "R-101", Capacity: 50, RoomType: "lecture"}},
	}
}

func TestOptimizerFirstEndpointWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req dto.OptimizeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Sections, 1)

		roomID := "room-1"
		json.NewEncoder(w).Encode(dto.OptimizeResponse{
			Assignments: []dto.OptimizeAssignment{{SectionID: "sec-1", RoomID: &roomID, DayOfWeek: 1, StartTime: "08:00", EndTime: "09:30"}},
			Score:       0.97,
		})
	}))
	defer srv.Close()

	c := NewOptimizerClient([]string{srv.URL}, time.Second, zap.NewNop())
	resp, err := c.Optimize(context.Background(), optimizerPayload())
	require.NoError(t, err)
	require.Len(t, resp.Assignments, 1)
	assert.Equal(t, "sec-1", resp.Assignments[0].SectionID)
	assert.InDelta(t, 0.97, resp.Score, 0.001)
}

func TestOptimizerFallsThroughToSecondEndpoint(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(dto.OptimizeResponse{Score: 0.5})
	}))
	defer good.Close()

	c := NewOptimizerClient([]string{bad.URL, good.URL}, time.Second, zap.NewNop())
	resp, err := c.Optimize(context.Background(), optimizerPayload())
	require.NoError(t, err)
	assert.InDelta(t, 0.5, resp.Score, 0.001)
}

func TestOptimizerErrorBodyCountsAsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(dto.OptimizeResponse{Errors: []string{"infeasible: section sec-1"}})
	}))
	defer srv.Close()

	c := NewOptimizerClient([]string{srv.URL}, time.Second, zap.NewNop())
	_, err := c.Optimize(context.Background(), optimizerPayload())
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrOptimizerUnavailable.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "infeasible")
}

func TestOptimizerAllEndpointsDown(t *testing.T) {
	c := NewOptimizerClient([]string{"http://127.0.0.1:1", "http://127.0.0.1:2"}, 200*time.Millisecond, zap.NewNop())
	_, err := c.Optimize(context.Background(), optimizerPayload())
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrOptimizerUnavailable.Code, appErr.Code)
}

func TestOptimizerDisabledWithoutEndpoints(t *testing.T) {
	c := NewOptimizerClient(nil, time.Second, zap.NewNop())
	assert.False(t, c.Enabled())
	_, err := c.Optimize(context.Background(), optimizerPayload())
	require.Error(t, err)
}
