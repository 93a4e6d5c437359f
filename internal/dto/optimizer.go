package dto

// OptimizeSection is the normalized section payload sent to the external
// optimizing service.
type OptimizeSection struct {
	ID               string   `json:"id"`
	CourseCode       string   `json:"courseCode"`
	CourseName       string   `json:"courseName"`
	SectionCode      string   `json:"sectionCode"`
	YearLevel        int      `json:"yearLevel,omitempty"`
	StudentCount     int      `json:"studentCount"`
	WeeklyHours      float64  `json:"weeklyHours"`
	LectureHours     float64  `json:"lectureHours,omitempty"`
	LabHours         float64  `json:"labHours,omitempty"`
	IsLab            bool     `json:"isLab"`
	College          string   `json:"college"`
	TeacherID        string   `json:"teacherId,omitempty"`
	TeacherName      string   `json:"teacherName"`
	RequiredFeatures []string `json:"requiredFeatures,omitempty"`
}

// OptimizeRoom is the normalized room payload sent to the optimizer.
type OptimizeRoom struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Campus     string   `json:"campus,omitempty"`
	Building   string   `json:"building"`
	Floor      string   `json:"floor,omitempty"`
	Capacity   int      `json:"capacity"`
	RoomType   string   `json:"roomType"`
	College    string   `json:"college"`
	Accessible bool     `json:"accessible"`
	Features   []string `json:"features,omitempty"`
}

// OptimizeSlot is one half-hour grid cell.
type OptimizeSlot struct {
	ID        string `json:"id"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// OptimizeConstraints mirrors the fallback constraint set so the remote
// solver honours the same rules.
type OptimizeConstraints struct {
	ActiveDays          []int  `json:"activeDays"`
	OnlineDays          []int  `json:"onlineDays,omitempty"`
	LunchMode           string `json:"lunchMode"`
	LunchStart          string `json:"lunchStart,omitempty"`
	LunchEnd            string `json:"lunchEnd,omitempty"`
	StrictRoomTypes     bool   `json:"strictRoomTypes"`
	MaxClassesPerDay    int    `json:"maxClassesPerDay"`
	MinCourseDayGap     int    `json:"minCourseDayGap"`
	MaxConsecutiveHours int    `json:"maxConsecutiveHours,omitempty"`
	NightThreshold      string `json:"nightThreshold"`
	LateStartThreshold  string `json:"lateStartThreshold"`
}

// OptimizeRequest is the wire payload posted to each configured endpoint.
type OptimizeRequest struct {
	Sections    []OptimizeSection   `json:"sections"`
	Rooms       []OptimizeRoom      `json:"rooms"`
	Grid        []OptimizeSlot      `json:"grid"`
	Constraints OptimizeConstraints `json:"constraints"`
}

// OptimizeAssignment is one placed meeting in the optimizer's answer.
type OptimizeAssignment struct {
	SectionID string  `json:"sectionId"`
	RoomID    *string `json:"roomId,omitempty"`
	DayOfWeek int     `json:"dayOfWeek"`
	StartTime string  `json:"startTime"`
	EndTime   string  `json:"endTime"`
}

// OptimizeUnscheduled reports a section the optimizer gave up on.
type OptimizeUnscheduled struct {
	SectionID string `json:"sectionId"`
	Reason    string `json:"reason"`
}

// OptimizeResponse is the optimizer's reply. A response carrying Errors is
// treated as a failure and triggers the fallback allocator.
type OptimizeResponse struct {
	Assignments []OptimizeAssignment  `json:"assignments"`
	Unscheduled []OptimizeUnscheduled `json:"unscheduled,omitempty"`
	Score       float64               `json:"score"`
	Errors      []string              `json:"errors,omitempty"`
}
