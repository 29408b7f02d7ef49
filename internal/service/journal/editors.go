package journal

import (
	"go.uber.org/zap"

	"github.com/mamadbah2/hivelog/internal/domain/models"
	"github.com/mamadbah2/hivelog/internal/store"
)

// ApplyOptions controls the optional "apply to all hives" stamping when an
// inspection is saved: actions and notes are independently togglable.
type ApplyOptions struct {
	Actions bool
	Notes   bool
}

// TransferRequest moves a set of hives between two apiaries.
type TransferRequest struct {
	SourceApiaryID string   `json:"sourceApiaryId"`
	TargetApiaryID string   `json:"targetApiaryId"`
	HiveIDs        []string `json:"hiveIds"`
	Date           string   `json:"date"`
	Time           string   `json:"time,omitempty"`
	Notes          string   `json:"notes,omitempty"`
}

// SaveApiary replaces the apiary with a matching id in place, or appends it.
func (s *Service) SaveApiary(apiary models.Apiary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.Apiaries = upsertApiary(s.snap.Apiaries, apiary)
	s.afterMutation(store.KeyApiaries)
}

// DeleteApiary removes the apiary and, by ownership, every nested hive with
// its inspections, movements and production records.
func (s *Service) DeleteApiary(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ai := indexOfApiary(s.snap.Apiaries, id)
	if ai < 0 {
		return ErrApiaryNotFound
	}

	apiaries := make([]models.Apiary, 0, len(s.snap.Apiaries)-1)
	apiaries = append(apiaries, s.snap.Apiaries[:ai]...)
	apiaries = append(apiaries, s.snap.Apiaries[ai+1:]...)
	s.snap.Apiaries = apiaries

	if s.selectedApiaryID == id {
		s.selectedApiaryID = ""
		s.selectedHiveID = ""
	}

	s.afterMutation(store.KeyApiaries)
	return nil
}

// SaveHive upserts a hive inside its apiary.
func (s *Service) SaveHive(apiaryID string, hive models.Hive) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ai := indexOfApiary(s.snap.Apiaries, apiaryID)
	if ai < 0 {
		return ErrApiaryNotFound
	}

	apiary := s.snap.Apiaries[ai]
	apiary.Hives = upsertHive(apiary.Hives, hive)
	s.replaceApiary(ai, apiary)

	s.afterMutation(store.KeyApiaries)
	return nil
}

// DeleteHive removes a hive and its nested records from its apiary.
func (s *Service) DeleteHive(apiaryID, hiveID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ai := indexOfApiary(s.snap.Apiaries, apiaryID)
	if ai < 0 {
		return ErrApiaryNotFound
	}
	apiary := s.snap.Apiaries[ai]

	hi := indexOfHive(apiary.Hives, hiveID)
	if hi < 0 {
		return ErrHiveNotFound
	}

	hives := make([]models.Hive, 0, len(apiary.Hives)-1)
	hives = append(hives, apiary.Hives[:hi]...)
	hives = append(hives, apiary.Hives[hi+1:]...)
	apiary.Hives = hives
	s.replaceApiary(ai, apiary)

	if s.selectedHiveID == hiveID {
		s.selectedHiveID = ""
	}

	s.afterMutation(store.KeyApiaries)
	return nil
}

// SaveInspection upserts an inspection on the given hive. SawEggs and
// NoBrood are mutually exclusive; a record carrying both keeps SawEggs,
// mirroring the editor clearing the opposite toggle. When opts enables
// actions or notes, a reduced copy is appended as a brand-new inspection on
// every other hive of the same apiary, never overwriting existing records.
func (s *Service) SaveInspection(apiaryID, hiveID string, insp models.Inspection, opts ApplyOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if insp.SawEggs && insp.NoBrood {
		insp.NoBrood = false
	}

	ai := indexOfApiary(s.snap.Apiaries, apiaryID)
	if ai < 0 {
		return ErrApiaryNotFound
	}
	apiary := s.snap.Apiaries[ai]

	hi := indexOfHive(apiary.Hives, hiveID)
	if hi < 0 {
		return ErrHiveNotFound
	}

	hives := make([]models.Hive, len(apiary.Hives))
	copy(hives, apiary.Hives)

	target := hives[hi]
	target.Inspections = upsertInspection(target.Inspections, insp)
	hives[hi] = target

	if opts.Actions || opts.Notes {
		for i := range hives {
			if i == hi {
				continue
			}
			stamp := models.Inspection{
				ID:   models.NewUniqueID(),
				Date: insp.Date,
				Time: insp.Time,
			}
			if opts.Actions {
				stamp.Actions = insp.Actions
			}
			if opts.Notes {
				stamp.Notes = insp.Notes
			}
			sibling := hives[i]
			sibling.Inspections = appendInspection(sibling.Inspections, stamp)
			hives[i] = sibling
		}
		s.logger.Debug("stamped inspection on sibling hives",
			zap.String("apiary_id", apiaryID),
			zap.Int("siblings", len(hives)-1))
	}

	apiary.Hives = hives
	s.replaceApiary(ai, apiary)

	s.afterMutation(store.KeyApiaries)
	return nil
}

// DeleteInspection removes an inspection from a hive by id.
func (s *Service) DeleteInspection(apiaryID, hiveID, inspectionID string) error {
	return s.updateHive(apiaryID, hiveID, func(h models.Hive) models.Hive {
		out := make([]models.Inspection, 0, len(h.Inspections))
		for _, in := range h.Inspections {
			if in.ID != inspectionID {
				out = append(out, in)
			}
		}
		h.Inspections = out
		return h
	})
}

// SaveMovement upserts a movement record on a hive.
func (s *Service) SaveMovement(apiaryID, hiveID string, movement models.HiveMovement) error {
	return s.updateHive(apiaryID, hiveID, func(h models.Hive) models.Hive {
		h.Movements = upsertMovement(h.Movements, movement)
		return h
	})
}

// DeleteMovement removes a movement record from a hive by id.
func (s *Service) DeleteMovement(apiaryID, hiveID, movementID string) error {
	return s.updateHive(apiaryID, hiveID, func(h models.Hive) models.Hive {
		out := make([]models.HiveMovement, 0, len(h.Movements))
		for _, m := range h.Movements {
			if m.ID != movementID {
				out = append(out, m)
			}
		}
		h.Movements = out
		return h
	})
}

// SaveProduction upserts a production record. A record with no honey, pollen
// or propolis sub-record is rejected before any state mutation.
func (s *Service) SaveProduction(apiaryID, hiveID string, record models.ProductionRecord) error {
	if record.Honey == nil && record.Pollen == nil && record.Propolis == nil {
		return ErrEmptyProduction
	}
	return s.updateHive(apiaryID, hiveID, func(h models.Hive) models.Hive {
		h.Production = upsertProduction(h.Production, record)
		return h
	})
}

// DeleteProduction removes a production record from a hive by id.
func (s *Service) DeleteProduction(apiaryID, hiveID, recordID string) error {
	return s.updateHive(apiaryID, hiveID, func(h models.Hive) models.Hive {
		out := make([]models.ProductionRecord, 0, len(h.Production))
		for _, p := range h.Production {
			if p.ID != recordID {
				out = append(out, p)
			}
		}
		h.Production = out
		return h
	})
}

// TransferHives moves the requested hives from the source apiary to the
// target as one atomic state transition: the hives leave the source, gain a
// movement record each, and join the target in the same snapshot swap.
func (s *Service) TransferHives(req TransferRequest) error {
	if req.SourceApiaryID == "" || req.TargetApiaryID == "" ||
		req.SourceApiaryID == req.TargetApiaryID || len(req.HiveIDs) == 0 {
		return ErrInvalidTransfer
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	si := indexOfApiary(s.snap.Apiaries, req.SourceApiaryID)
	ti := indexOfApiary(s.snap.Apiaries, req.TargetApiaryID)
	if si < 0 || ti < 0 {
		return ErrApiaryNotFound
	}

	source := s.snap.Apiaries[si]
	target := s.snap.Apiaries[ti]

	wanted := make(map[string]bool, len(req.HiveIDs))
	for _, id := range req.HiveIDs {
		wanted[id] = true
	}
	for id := range wanted {
		if indexOfHive(source.Hives, id) < 0 {
			return ErrHiveNotFound
		}
	}

	remaining := make([]models.Hive, 0, len(source.Hives))
	moved := make([]models.Hive, 0, len(wanted))
	for _, hive := range source.Hives {
		if !wanted[hive.ID] {
			remaining = append(remaining, hive)
			continue
		}
		movement := models.HiveMovement{
			ID:             models.NewUniqueID(),
			Date:           req.Date,
			Time:           req.Time,
			Notes:          req.Notes,
			FromApiaryName: source.Name,
			ToApiaryName:   target.Name,
		}
		hive.Movements = appendMovement(hive.Movements, movement)
		moved = append(moved, hive)
	}

	source.Hives = remaining
	targetHives := make([]models.Hive, 0, len(target.Hives)+len(moved))
	targetHives = append(targetHives, target.Hives...)
	targetHives = append(targetHives, moved...)
	target.Hives = targetHives

	apiaries := make([]models.Apiary, len(s.snap.Apiaries))
	copy(apiaries, s.snap.Apiaries)
	apiaries[si] = source
	apiaries[ti] = target
	s.snap.Apiaries = apiaries

	s.logger.Info("transferred hives",
		zap.String("from", source.Name),
		zap.String("to", target.Name),
		zap.Int("count", len(moved)))

	s.afterMutation(store.KeyApiaries)
	return nil
}

// SaveEvent upserts a calendar event.
func (s *Service) SaveEvent(event models.CalendarEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.Events = upsertEvent(s.snap.Events, event)
	s.afterMutation(store.KeyEvents)
}

// DeleteEvent removes a calendar event by id.
func (s *Service) DeleteEvent(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.CalendarEvent, 0, len(s.snap.Events))
	for _, ev := range s.snap.Events {
		if ev.ID != id {
			out = append(out, ev)
		}
	}
	s.snap.Events = out
	s.afterMutation(store.KeyEvents)
}

// SaveSeasonalNote upserts a note by its (type, year) composite key; the
// editor loads and overwrites whatever note held that slot.
func (s *Service) SaveSeasonalNote(note models.SeasonalNote) error {
	if (note.Type != models.SeasonalNoteBlooms && note.Type != models.SeasonalNoteWorks) || note.Year == 0 {
		return ErrInvalidSeasonalNote
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	note.UpdatedAt = s.now()

	notes := make([]models.SeasonalNote, len(s.snap.SeasonalNotes))
	copy(notes, s.snap.SeasonalNotes)
	replaced := false
	for i := range notes {
		if notes[i].Type == note.Type && notes[i].Year == note.Year {
			notes[i] = note
			replaced = true
			break
		}
	}
	if !replaced {
		notes = append(notes, note)
	}
	s.snap.SeasonalNotes = notes

	s.afterMutation(store.KeySeasonalNotes)
	return nil
}

// SaveLocation stores the free-standing saved location preference.
func (s *Service) SaveLocation(loc models.LocationData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.Location = &loc
	s.afterMutation(store.KeyLocation)
}

// updateHive rebuilds the ancestor chain around a single-hive change: new
// hive, new hives slice, new apiary, new apiaries slice.
func (s *Service) updateHive(apiaryID, hiveID string, fn func(models.Hive) models.Hive) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ai := indexOfApiary(s.snap.Apiaries, apiaryID)
	if ai < 0 {
		return ErrApiaryNotFound
	}
	apiary := s.snap.Apiaries[ai]

	hi := indexOfHive(apiary.Hives, hiveID)
	if hi < 0 {
		return ErrHiveNotFound
	}

	hives := make([]models.Hive, len(apiary.Hives))
	copy(hives, apiary.Hives)
	hives[hi] = fn(hives[hi])
	apiary.Hives = hives
	s.replaceApiary(ai, apiary)

	s.afterMutation(store.KeyApiaries)
	return nil
}

// replaceApiary swaps a rebuilt apiary into a fresh apiaries slice. Must be
// called with the lock held.
func (s *Service) replaceApiary(idx int, apiary models.Apiary) {
	apiaries := make([]models.Apiary, len(s.snap.Apiaries))
	copy(apiaries, s.snap.Apiaries)
	apiaries[idx] = apiary
	s.snap.Apiaries = apiaries
}

func upsertApiary(list []models.Apiary, item models.Apiary) []models.Apiary {
	out := make([]models.Apiary, len(list))
	copy(out, list)
	for i := range out {
		if out[i].ID == item.ID {
			out[i] = item
			return out
		}
	}
	return append(out, item)
}

func upsertHive(list []models.Hive, item models.Hive) []models.Hive {
	out := make([]models.Hive, len(list))
	copy(out, list)
	for i := range out {
		if out[i].ID == item.ID {
			out[i] = item
			return out
		}
	}
	return append(out, item)
}

func upsertInspection(list []models.Inspection, item models.Inspection) []models.Inspection {
	out := make([]models.Inspection, len(list))
	copy(out, list)
	for i := range out {
		if out[i].ID == item.ID {
			out[i] = item
			return out
		}
	}
	return append(out, item)
}

func appendInspection(list []models.Inspection, item models.Inspection) []models.Inspection {
	out := make([]models.Inspection, 0, len(list)+1)
	out = append(out, list...)
	return append(out, item)
}

func upsertMovement(list []models.HiveMovement, item models.HiveMovement) []models.HiveMovement {
	out := make([]models.HiveMovement, len(list))
	copy(out, list)
	for i := range out {
		if out[i].ID == item.ID {
			out[i] = item
			return out
		}
	}
	return append(out, item)
}

func appendMovement(list []models.HiveMovement, item models.HiveMovement) []models.HiveMovement {
	out := make([]models.HiveMovement, 0, len(list)+1)
	out = append(out, list...)
	return append(out, item)
}

func upsertProduction(list []models.ProductionRecord, item models.ProductionRecord) []models.ProductionRecord {
	out := make([]models.ProductionRecord, len(list))
	copy(out, list)
	for i := range out {
		if out[i].ID == item.ID {
			out[i] = item
			return out
		}
	}
	return append(out, item)
}

func upsertEvent(list []models.CalendarEvent, item models.CalendarEvent) []models.CalendarEvent {
	out := make([]models.CalendarEvent, len(list))
	copy(out, list)
	for i := range out {
		if out[i].ID == item.ID {
			out[i] = item
			return out
		}
	}
	return append(out, item)
}
