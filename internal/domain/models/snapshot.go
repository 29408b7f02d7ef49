package models

// Snapshot is the full serializable application state: the unit pushed to
// and pulled from the remote gateway as one opaque document.
type Snapshot struct {
	Apiaries      []Apiary        `json:"apiaries"`
	Events        []CalendarEvent `json:"events"`
	Location      *LocationData   `json:"location,omitempty"`
	SeasonalNotes []SeasonalNote  `json:"seasonalNotes"`
}
