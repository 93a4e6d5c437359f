package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
)

type probe struct {
	Endpoint    string
	Status      int
	Duration    time.Duration
	Assignments int
	Unscheduled int
	Score       float64
	Error       error
}

func main() {
	var (
		endpoints   string
		payloadPath string
		timeout     time.Duration
	)

	flag.StringVar(&endpoints, "endpoints", "http://localhost:9090/optimize", "Comma-separated optimizer endpoints, probed in order")
	flag.StringVar(&payloadPath, "payload", "", "Path to a JSON optimize request; omit to use a built-in sample")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	req, err := loadPayload(payloadPath)
	if err != nil {
		log.Fatalf("failed to load payload: %v", err)
	}
	body, err := json.Marshal(req)
	if err != nil {
		log.Fatalf("failed to encode payload: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var (
		probes  []probe
		healthy int
	)
	for _, endpoint := range splitEndpoints(endpoints) {
		p := probeEndpoint(client, endpoint, body)
		if p.Error == nil && p.Status == http.StatusOK {
			healthy++
		}
		probes = append(probes, p)
	}

	printReport(probes)

	fmt.Printf("Healthy endpoints: %d of %d\n", healthy, len(probes))
	if healthy == 0 {
		os.Exit(1)
	}
}

func loadPayload(path string) (*dto.OptimizeRequest, error) {
	if path == "" {
		return samplePayload(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var req dto.OptimizeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	if len(req.Sections) == 0 {
		return nil, fmt.Errorf("no sections defined in %s", path)
	}
	return &req, nil
}

// samplePayload is one lecture section, two rooms and a short Monday grid --
// enough for any conforming solver to answer without external data.
func samplePayload() *dto.OptimizeRequest {
	return &dto.OptimizeRequest{
		Sections: []dto.OptimizeSection{
			{
				ID:           "probe-section",
				CourseCode:   "PROBE101",
				CourseName:   "Probe Course",
				SectionCode:  "PROBE101_LEC",
				StudentCount: 25,
				WeeklyHours:  1.5,
				TeacherName:  "Probe Teacher",
			},
		},
		Rooms: []dto.OptimizeRoom{
			{ID: "probe-room-a", Name: "Probe A", Capacity: 30, RoomType: "lecture"},
			{ID: "probe-room-b", Name: "Probe B", Capacity: 60, RoomType: "lecture"},
		},
		Grid: []dto.OptimizeSlot{
			{ID: "s1", StartTime: "08:00", EndTime: "08:30"},
			{ID: "s2", StartTime: "08:30", EndTime: "09:00"},
			{ID: "s3", StartTime: "09:00", EndTime: "09:30"},
		},
		Constraints: dto.OptimizeConstraints{
			ActiveDays:       []int{1, 2, 3, 4, 5},
			LunchMode:        "fixed",
			LunchStart:       "12:00",
			LunchEnd:         "13:00",
			StrictRoomTypes:  true,
			MaxClassesPerDay: 4,
			MinCourseDayGap:  2,
		},
	}
}

func probeEndpoint(client *http.Client, endpoint string, body []byte) probe {
	p := probe{Endpoint: endpoint}

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		p.Error = err
		return p
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := client.Do(req)
	p.Duration = time.Since(start)
	if err != nil {
		p.Error = err
		return p
	}
	defer resp.Body.Close()

	p.Status = resp.StatusCode
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		p.Error = fmt.Errorf("read body: %w", err)
		return p
	}

	var answer dto.OptimizeResponse
	if err := json.Unmarshal(data, &answer); err != nil {
		p.Error = fmt.Errorf("decode body: %w", err)
		return p
	}
	if len(answer.Errors) > 0 {
		p.Error = fmt.Errorf("solver errors: %s", strings.Join(answer.Errors, "; "))
		return p
	}
	p.Assignments = len(answer.Assignments)
	p.Unscheduled = len(answer.Unscheduled)
	p.Score = answer.Score
	return p
}

func splitEndpoints(raw string) []string {
	var result []string
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func printReport(probes []probe) {
	fmt.Println("Optimizer Probe Report")
	fmt.Println("======================")
	for _, p := range probes {
		status := "OK"
		if p.Error != nil {
			status = "ERROR"
		} else if p.Status != http.StatusOK {
			status = "DIFF"
		}
		fmt.Printf("[%s] %s\n", status, p.Endpoint)
		fmt.Printf("  Status: %d (%s)\n", p.Status, p.Duration)
		if p.Error != nil {
			fmt.Printf("  Error: %v\n", p.Error)
		} else {
			fmt.Printf("  Assignments: %d | Unscheduled: %d | Score: %.2f\n", p.Assignments, p.Unscheduled, p.Score)
		}
	}
}
