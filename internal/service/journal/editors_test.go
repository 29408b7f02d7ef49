package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/hivelog/internal/domain/models"
)

func TestSaveProductionRejectsEmptyRecord(t *testing.T) {
	svc, notifier := newTestService(t)
	seedApiary(t, svc, "a1", "Valley", "h1")
	before := notifier.count

	err := svc.SaveProduction("a1", "h1", models.ProductionRecord{ID: "p1", Date: "2026-06-01"})
	require.ErrorIs(t, err, ErrEmptyProduction)

	snap := svc.Snapshot()
	assert.Empty(t, snap.Apiaries[0].Hives[0].Production, "rejected record must not touch state")
	assert.Equal(t, before, notifier.count)
}

func TestSaveProductionAcceptsSingleHarvest(t *testing.T) {
	svc, _ := newTestService(t)
	seedApiary(t, svc, "a1", "Valley", "h1")

	require.NoError(t, svc.SaveProduction("a1", "h1", models.ProductionRecord{
		ID: "p1", Date: "2026-06-01", Pollen: &models.PollenHarvest{Grams: 350},
	}))

	snap := svc.Snapshot()
	require.Len(t, snap.Apiaries[0].Hives[0].Production, 1)
}

func TestSaveInspectionNormalizesEggBroodExclusivity(t *testing.T) {
	svc, _ := newTestService(t)
	seedApiary(t, svc, "a1", "Valley", "h1")

	require.NoError(t, svc.SaveInspection("a1", "h1", models.Inspection{
		ID: "i1", Date: "2026-05-01", SawEggs: true, NoBrood: true,
	}, ApplyOptions{}))

	insp := svc.Snapshot().Apiaries[0].Hives[0].Inspections[0]
	assert.True(t, insp.SawEggs)
	assert.False(t, insp.NoBrood)
}

func TestSaveInspectionAppliesActionsToSiblings(t *testing.T) {
	svc, _ := newTestService(t)
	seedApiary(t, svc, "a1", "Valley", "h", "k", "l")

	require.NoError(t, svc.SaveInspection("a1", "h", models.Inspection{
		ID: "i1", Date: "2026-05-01", Time: "10:30",
		Actions: "added super", Notes: "strong colony",
	}, ApplyOptions{Actions: true, Notes: false}))

	snap := svc.Snapshot()
	target := snap.Apiaries[0].Hives[0]
	require.Len(t, target.Inspections, 1)
	assert.Equal(t, "strong colony", target.Inspections[0].Notes)

	for _, sibling := range snap.Apiaries[0].Hives[1:] {
		require.Len(t, sibling.Inspections, 1, "each sibling gains exactly one stamped inspection")
		stamp := sibling.Inspections[0]
		assert.Equal(t, "added super", stamp.Actions)
		assert.Empty(t, stamp.Notes, "notes were not opted in")
		assert.Equal(t, "2026-05-01", stamp.Date)
		assert.NotEqual(t, "i1", stamp.ID)
	}
}

func TestSaveInspectionStampNeverOverwrites(t *testing.T) {
	svc, _ := newTestService(t)
	seedApiary(t, svc, "a1", "Valley", "h", "k")

	require.NoError(t, svc.SaveInspection("a1", "k", models.Inspection{ID: "existing", Date: "2026-04-01"}, ApplyOptions{}))
	require.NoError(t, svc.SaveInspection("a1", "h", models.Inspection{
		ID: "i1", Date: "2026-05-01", Actions: "fed syrup",
	}, ApplyOptions{Actions: true}))

	sibling := svc.Snapshot().Apiaries[0].Hives[1]
	require.Len(t, sibling.Inspections, 2)
	assert.Equal(t, "existing", sibling.Inspections[0].ID, "stamp is appended after existing records")
}

func TestSaveInspectionStampIDsAreUnique(t *testing.T) {
	svc, _ := newTestService(t)
	seedApiary(t, svc, "a1", "Valley", "h", "k", "l", "m")

	require.NoError(t, svc.SaveInspection("a1", "h", models.Inspection{
		ID: "i1", Date: "2026-05-01", Actions: "rotated brood box",
	}, ApplyOptions{Actions: true}))

	seen := make(map[string]bool)
	for _, hive := range svc.Snapshot().Apiaries[0].Hives[1:] {
		id := hive.Inspections[0].ID
		assert.False(t, seen[id], "stamped ids must not collide within one save")
		seen[id] = true
	}
}

func TestTransferHives(t *testing.T) {
	svc, _ := newTestService(t)
	seedApiary(t, svc, "x", "Old Meadow", "a", "b", "c")
	seedApiary(t, svc, "y", "New Meadow", "d")

	require.NoError(t, svc.TransferHives(TransferRequest{
		SourceApiaryID: "x",
		TargetApiaryID: "y",
		HiveIDs:        []string{"a", "b"},
		Date:           "2026-07-15",
		Notes:          "moved for sunflower bloom",
	}))

	snap := svc.Snapshot()
	source := snap.Apiaries[0]
	target := snap.Apiaries[1]

	require.Len(t, source.Hives, 1)
	assert.Equal(t, "c", source.Hives[0].ID)

	require.Len(t, target.Hives, 3)
	assert.Equal(t, "d", target.Hives[0].ID)

	for _, hive := range target.Hives[1:] {
		require.Len(t, hive.Movements, 1, "each moved hive gains exactly one movement")
		movement := hive.Movements[0]
		assert.Equal(t, "Old Meadow", movement.FromApiaryName)
		assert.Equal(t, "New Meadow", movement.ToApiaryName)
		assert.Equal(t, "2026-07-15", movement.Date)
		assert.NotEmpty(t, movement.ID)
	}
	assert.NotEqual(t, target.Hives[1].Movements[0].ID, target.Hives[2].Movements[0].ID)
}

func TestTransferHivesValidation(t *testing.T) {
	svc, _ := newTestService(t)
	seedApiary(t, svc, "x", "Old", "a")
	seedApiary(t, svc, "y", "New")

	assert.ErrorIs(t, svc.TransferHives(TransferRequest{SourceApiaryID: "x", TargetApiaryID: "x", HiveIDs: []string{"a"}}), ErrInvalidTransfer)
	assert.ErrorIs(t, svc.TransferHives(TransferRequest{SourceApiaryID: "x", TargetApiaryID: "y"}), ErrInvalidTransfer)
	assert.ErrorIs(t, svc.TransferHives(TransferRequest{SourceApiaryID: "x", TargetApiaryID: "missing", HiveIDs: []string{"a"}}), ErrApiaryNotFound)
	assert.ErrorIs(t, svc.TransferHives(TransferRequest{SourceApiaryID: "x", TargetApiaryID: "y", HiveIDs: []string{"nope"}}), ErrHiveNotFound)

	// A rejected transfer must leave both apiaries untouched.
	snap := svc.Snapshot()
	assert.Len(t, snap.Apiaries[0].Hives, 1)
	assert.Empty(t, snap.Apiaries[1].Hives)
}

func TestDeleteNestedRecords(t *testing.T) {
	svc, _ := newTestService(t)
	seedApiary(t, svc, "a1", "Valley", "h1")

	require.NoError(t, svc.SaveInspection("a1", "h1", models.Inspection{ID: "i1", Date: "2026-05-01"}, ApplyOptions{}))
	require.NoError(t, svc.SaveMovement("a1", "h1", models.HiveMovement{ID: "m1", Date: "2026-05-02", FromApiaryName: "Valley", ToApiaryName: "Valley"}))
	require.NoError(t, svc.SaveProduction("a1", "h1", models.ProductionRecord{ID: "p1", Date: "2026-06-01", Propolis: &models.PropolisHarvest{Nets: 3}}))

	require.NoError(t, svc.DeleteInspection("a1", "h1", "i1"))
	require.NoError(t, svc.DeleteMovement("a1", "h1", "m1"))
	require.NoError(t, svc.DeleteProduction("a1", "h1", "p1"))

	hive := svc.Snapshot().Apiaries[0].Hives[0]
	assert.Empty(t, hive.Inspections)
	assert.Empty(t, hive.Movements)
	assert.Empty(t, hive.Production)
}

func TestEventSaveAndDelete(t *testing.T) {
	svc, _ := newTestService(t)

	svc.SaveEvent(models.CalendarEvent{ID: "e1", Title: "Feed check", Scope: models.EventScopeHive})
	svc.SaveEvent(models.CalendarEvent{ID: "e1", Title: "Feed check updated", Scope: models.EventScopeHive})
	svc.SaveEvent(models.CalendarEvent{ID: "e2", Title: "Harvest", Scope: models.EventScopeApiary})

	snap := svc.Snapshot()
	require.Len(t, snap.Events, 2)
	assert.Equal(t, "Feed check updated", snap.Events[0].Title)

	svc.DeleteEvent("e1")
	snap = svc.Snapshot()
	require.Len(t, snap.Events, 1)
	assert.Equal(t, "e2", snap.Events[0].ID)
}
