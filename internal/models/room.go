package models

import "github.com/lib/pq"

// Room types understood by the allocators.
const (
	RoomTypeLecture    = "lecture"
	RoomTypeLaboratory = "laboratory"
)

// CollegeShared marks a room usable by any college.
const CollegeShared = "shared"

// Room is immutable reference data for a scheduling run.
type Room struct {
	ID         string         `db:"id" json:"id"`
	Campus     string         `db:"campus" json:"campus"`
	Building   string         `db:"building" json:"building"`
	Name       string         `db:"name" json:"name"`
	Capacity   int            `db:"capacity" json:"capacity"`
	RoomType   string         `db:"room_type" json:"room_type"`
	Floor      string         `db:"floor" json:"floor"`
	Accessible bool           `db:"accessible" json:"accessible"`
	Features   pq.StringArray `db:"features" json:"features"`
	College    string         `db:"college" json:"college"`
}

// IsShared reports whether any college may book the room.
func (r Room) IsShared() bool {
	return r.College == CollegeShared
}

// HasFeatures reports whether the room provides every required feature tag.
func (r Room) HasFeatures(required []string) bool {
	if len(required) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(r.Features))
	for _, f := range r.Features {
		have[f] = struct{}{}
	}
	for _, f := range required {
		if _, ok := have[f]; !ok {
			return false
		}
	}
	return true
}
