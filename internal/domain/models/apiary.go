package models

// HiveStatus describes the overall condition of a colony.
type HiveStatus string

const (
	HiveStatusActive  HiveStatus = "active"
	HiveStatusWeak    HiveStatus = "weak"
	HiveStatusSwarmed HiveStatus = "swarmed"
	HiveStatusDead    HiveStatus = "dead"
)

// QueenRace identifies the breed of the resident queen.
type QueenRace string

const (
	QueenRaceLigustica QueenRace = "ligustica"
	QueenRaceCarnica   QueenRace = "carnica"
	QueenRaceBuckfast  QueenRace = "buckfast"
	QueenRaceMellifera QueenRace = "mellifera"
	QueenRaceUnknown   QueenRace = "unknown"
)

// Apiary is a physical site owning a set of hives. A hive belongs to exactly
// one apiary at any instant; transfers move ownership atomically.
type Apiary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Hives    []Hive `json:"hives"`
}

// Hive is a single colony tracked over time, with its nested journal records.
type Hive struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	QueenYear   int                `json:"queenYear"`
	Status      HiveStatus         `json:"status"`
	QueenRace   QueenRace          `json:"queenRace"`
	Inspections []Inspection       `json:"inspections"`
	Movements   []HiveMovement     `json:"movements"`
	Production  []ProductionRecord `json:"production"`
}

// Inspection is a dated observation record for one hive. SawEggs and NoBrood
// are mutually exclusive; the journal service clears one when the other is set.
type Inspection struct {
	ID          string   `json:"id"`
	Date        string   `json:"date"`
	Time        string   `json:"time,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	SawQueen    bool     `json:"sawQueen"`
	SawEggs     bool     `json:"sawEggs"`
	NoBrood     bool     `json:"noBrood"`
	BroodFrames *int     `json:"broodFrames,omitempty"`
	HoneyFrames *int     `json:"honeyFrames,omitempty"`
	Diseases    string   `json:"diseases,omitempty"`
	Feeding     string   `json:"feeding,omitempty"`
	Treatments  string   `json:"treatments,omitempty"`
	Actions     string   `json:"actions,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	AudioClip   string   `json:"audioClip,omitempty"` // base64-encoded recording
}

// HiveMovement records a hive changing apiary. Apiary names are captured as
// plain strings at transfer time; renaming an apiary never rewrites history.
type HiveMovement struct {
	ID             string `json:"id"`
	Date           string `json:"date"`
	Time           string `json:"time,omitempty"`
	Notes          string `json:"notes,omitempty"`
	FromApiaryName string `json:"fromApiaryName"`
	ToApiaryName   string `json:"toApiaryName"`
}

// ProductionRecord is a dated harvest entry. At least one of the three
// sub-records must be present; the journal service rejects empty records.
type ProductionRecord struct {
	ID       string           `json:"id"`
	Date     string           `json:"date"`
	Honey    *HoneyHarvest    `json:"honey,omitempty"`
	Pollen   *PollenHarvest   `json:"pollen,omitempty"`
	Propolis *PropolisHarvest `json:"propolis,omitempty"`
}

// HoneyHarvest captures a honey extraction.
type HoneyHarvest struct {
	Type   string `json:"type"`
	Melari int    `json:"melari"`
	Notes  string `json:"notes,omitempty"`
}

// PollenHarvest captures collected pollen in grams.
type PollenHarvest struct {
	Grams float64 `json:"grams"`
	Notes string  `json:"notes,omitempty"`
}

// PropolisHarvest captures propolis nets harvested.
type PropolisHarvest struct {
	Nets  int    `json:"nets"`
	Notes string `json:"notes,omitempty"`
}
