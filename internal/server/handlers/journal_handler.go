package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/hivelog/internal/domain/models"
	"github.com/mamadbah2/hivelog/internal/service/journal"
	syncsvc "github.com/mamadbah2/hivelog/internal/service/sync"
)

// JournalHandler exposes the nested-collection editors over HTTP.
type JournalHandler struct {
	svc    *journal.Service
	sync   *syncsvc.Scheduler
	logger *zap.Logger
}

// NewJournalHandler constructs the HTTP handler adapter.
func NewJournalHandler(svc *journal.Service, sync *syncsvc.Scheduler, logger *zap.Logger) *JournalHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JournalHandler{svc: svc, sync: sync, logger: logger}
}

// GetSnapshot returns the full journal state.
func (h *JournalHandler) GetSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Snapshot())
}

// SyncStatus reports the scheduler's position and last successful push.
func (h *JournalHandler) SyncStatus(c *gin.Context) {
	var lastSync *time.Time
	if ts := h.sync.LastSync(); !ts.IsZero() {
		lastSync = &ts
	}
	c.JSON(http.StatusOK, gin.H{
		"syncing":  h.sync.Syncing(),
		"lastSync": lastSync,
	})
}

// SaveApiary upserts an apiary, minting an id for new records.
func (h *JournalHandler) SaveApiary(c *gin.Context) {
	var apiary models.Apiary
	if err := c.ShouldBindJSON(&apiary); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid apiary payload"})
		return
	}
	if apiary.ID == "" {
		apiary.ID = models.NewID()
	}

	h.svc.SaveApiary(apiary)
	c.JSON(http.StatusOK, apiary)
}

// DeleteApiary removes an apiary and all of its nested records.
func (h *JournalHandler) DeleteApiary(c *gin.Context) {
	if err := h.svc.DeleteApiary(c.Param("id")); err != nil {
		h.renderJournalError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SaveHive upserts a hive inside the apiary from the path.
func (h *JournalHandler) SaveHive(c *gin.Context) {
	var hive models.Hive
	if err := c.ShouldBindJSON(&hive); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hive payload"})
		return
	}
	if hive.ID == "" {
		hive.ID = models.NewID()
	}

	if err := h.svc.SaveHive(c.Param("id"), hive); err != nil {
		h.renderJournalError(c, err)
		return
	}
	c.JSON(http.StatusOK, hive)
}

// DeleteHive removes a hive from its apiary.
func (h *JournalHandler) DeleteHive(c *gin.Context) {
	if err := h.svc.DeleteHive(c.Param("id"), c.Param("hiveID")); err != nil {
		h.renderJournalError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SaveInspection upserts an inspection. The applyActions/applyNotes query
// flags opt in to stamping a reduced copy onto every other hive of the
// apiary.
func (h *JournalHandler) SaveInspection(c *gin.Context) {
	var insp models.Inspection
	if err := c.ShouldBindJSON(&insp); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid inspection payload"})
		return
	}
	if insp.ID == "" {
		insp.ID = models.NewID()
	}

	opts := journal.ApplyOptions{
		Actions: c.Query("applyActions") == "true",
		Notes:   c.Query("applyNotes") == "true",
	}

	if err := h.svc.SaveInspection(c.Param("id"), c.Param("hiveID"), insp, opts); err != nil {
		h.renderJournalError(c, err)
		return
	}
	c.JSON(http.StatusOK, insp)
}

// DeleteInspection removes an inspection from a hive.
func (h *JournalHandler) DeleteInspection(c *gin.Context) {
	if err := h.svc.DeleteInspection(c.Param("id"), c.Param("hiveID"), c.Param("inspectionID")); err != nil {
		h.renderJournalError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SaveMovement upserts a movement record on a hive.
func (h *JournalHandler) SaveMovement(c *gin.Context) {
	var movement models.HiveMovement
	if err := c.ShouldBindJSON(&movement); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid movement payload"})
		return
	}
	if movement.ID == "" {
		movement.ID = models.NewUniqueID()
	}

	if err := h.svc.SaveMovement(c.Param("id"), c.Param("hiveID"), movement); err != nil {
		h.renderJournalError(c, err)
		return
	}
	c.JSON(http.StatusOK, movement)
}

// DeleteMovement removes a movement record from a hive.
func (h *JournalHandler) DeleteMovement(c *gin.Context) {
	if err := h.svc.DeleteMovement(c.Param("id"), c.Param("hiveID"), c.Param("movementID")); err != nil {
		h.renderJournalError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SaveProduction upserts a production record; empty harvests are rejected.
func (h *JournalHandler) SaveProduction(c *gin.Context) {
	var record models.ProductionRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid production payload"})
		return
	}
	if record.ID == "" {
		record.ID = models.NewID()
	}

	if err := h.svc.SaveProduction(c.Param("id"), c.Param("hiveID"), record); err != nil {
		h.renderJournalError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// DeleteProduction removes a production record from a hive.
func (h *JournalHandler) DeleteProduction(c *gin.Context) {
	if err := h.svc.DeleteProduction(c.Param("id"), c.Param("hiveID"), c.Param("recordID")); err != nil {
		h.renderJournalError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Transfer moves hives between apiaries as a single atomic transition.
func (h *JournalHandler) Transfer(c *gin.Context) {
	var req journal.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transfer payload"})
		return
	}

	if err := h.svc.TransferHives(req); err != nil {
		h.renderJournalError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// SaveEvent upserts a calendar event.
func (h *JournalHandler) SaveEvent(c *gin.Context) {
	var event models.CalendarEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event payload"})
		return
	}
	if event.ID == "" {
		event.ID = models.NewID()
	}

	h.svc.SaveEvent(event)
	c.JSON(http.StatusOK, event)
}

// DeleteEvent removes a calendar event.
func (h *JournalHandler) DeleteEvent(c *gin.Context) {
	h.svc.DeleteEvent(c.Param("id"))
	c.Status(http.StatusNoContent)
}

// SaveSeasonalNote upserts a note by its (type, year) key.
func (h *JournalHandler) SaveSeasonalNote(c *gin.Context) {
	var note models.SeasonalNote
	if err := c.ShouldBindJSON(&note); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid seasonal note payload"})
		return
	}
	if note.ID == "" {
		note.ID = models.NewID()
	}

	if err := h.svc.SaveSeasonalNote(note); err != nil {
		h.renderJournalError(c, err)
		return
	}
	c.JSON(http.StatusOK, note)
}

// SaveLocation stores the saved location preference.
func (h *JournalHandler) SaveLocation(c *gin.Context) {
	var loc models.LocationData
	if err := c.ShouldBindJSON(&loc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid location payload"})
		return
	}

	h.svc.SaveLocation(loc)
	c.JSON(http.StatusOK, loc)
}

// Select records the focused apiary/hive pair.
func (h *JournalHandler) Select(c *gin.Context) {
	var req struct {
		ApiaryID string `json:"apiaryId"`
		HiveID   string `json:"hiveId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid selection payload"})
		return
	}

	h.svc.Select(req.ApiaryID, req.HiveID)
	c.Status(http.StatusOK)
}

// Selection returns the focused apiary/hive, re-derived from the canonical
// collections.
func (h *JournalHandler) Selection(c *gin.Context) {
	sel := h.svc.Selection()
	c.JSON(http.StatusOK, gin.H{"apiary": sel.Apiary, "hive": sel.Hive})
}

func (h *JournalHandler) renderJournalError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, journal.ErrApiaryNotFound), errors.Is(err, journal.ErrHiveNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, journal.ErrEmptyProduction),
		errors.Is(err, journal.ErrInvalidTransfer),
		errors.Is(err, journal.ErrInvalidSeasonalNote):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("journal operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "journal operation failed"})
	}
}
