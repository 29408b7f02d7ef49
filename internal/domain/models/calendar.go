package models

import "time"

// EventScope says whether a calendar event targets a whole apiary or
// specific hives inside it.
type EventScope string

const (
	EventScopeApiary EventScope = "apiary"
	EventScopeHive   EventScope = "hive"
)

// CalendarEvent is a planned activity the beekeeper wants on a calendar.
type CalendarEvent struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Start       time.Time      `json:"start"`
	Scope       EventScope     `json:"scope"`
	ApiaryID    string         `json:"apiaryId"`
	ApiaryName  string         `json:"apiaryName"`
	Hives       []EventHiveRef `json:"hives,omitempty"`
}

// EventHiveRef references a targeted hive by id and display name.
type EventHiveRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SeasonalNoteType distinguishes bloom tracking from planned works.
type SeasonalNoteType string

const (
	SeasonalNoteBlooms SeasonalNoteType = "blooms"
	SeasonalNoteWorks  SeasonalNoteType = "works"
)

// SeasonalNote is a free-form yearly note. The editor upserts by
// (Type, Year), so at most one note per pair is meaningful.
type SeasonalNote struct {
	ID         string           `json:"id"`
	Type       SeasonalNoteType `json:"type"`
	Year       int              `json:"year"`
	ApiaryIDs  []string         `json:"apiaryIds,omitempty"`
	Content    string           `json:"content"`
	FontFamily string           `json:"fontFamily,omitempty"`
	FontSize   string           `json:"fontSize,omitempty"`
	Color      string           `json:"color,omitempty"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

// LocationData is a named coordinate used for weather lookup and kept as a
// free-standing saved preference.
type LocationData struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
