package models

// TimeSlot is one cell of the fixed half-hour scheduling grid for the term.
type TimeSlot struct {
	ID              string `db:"id" json:"id"`
	StartTime       string `db:"start_time" json:"start_time"`
	EndTime         string `db:"end_time" json:"end_time"`
	DurationMinutes int    `db:"duration_minutes" json:"duration_minutes"`
}
