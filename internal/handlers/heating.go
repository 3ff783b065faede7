package handlers

import (
	"context"
	"net/http"

	"heating_bridge/internal/models"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK = "ok"

	errApplyMode  = "failed to apply mode"
	errGetStatus  = "failed to read status"
	errGetReport  = "failed to build report"
	errRoomQuery  = "missing 'room' query parameter"
	errInvalidPre = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// Request DTO for the mode change.
type applyModeRequest struct {
	Mode          string   `json:"mode" binding:"required"` // HOME | AWAY
	OverrideTempC *float64 `json:"override_temp_c,omitempty"`
}

// ApplyModeRequest is an exported model for Swagger docs of the mode payload.
type ApplyModeRequest struct {
	// Mode to apply. Allowed: HOME, AWAY
	Mode string `json:"mode" example:"AWAY"`
	// Optional explicit setpoint replacing both the comfort temperature and
	// the away fallback
	OverrideTempC *float64 `json:"override_temp_c,omitempty" example:"15.5"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Apply heating mode
// @Description  Dispatches capability-aware command batches to every controllable device and confirms the effect. PARTIAL_AFTER_RETRIES in the report is an outcome, not an error.
// @Tags         heating
// @Accept       json
// @Produce      json
// @Param        body  body   ApplyModeRequest  true  "Mode payload"
// @Success      200   {object}  models.OperationReport
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/heating/mode [post]
// @Security     BearerAuth
func (h *Handler) applyMode(c *gin.Context) {
	var req applyModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidPre + err.Error()})
		return
	}
	ctx := c.Request.Context()
	report, err := h.services.Heating.ApplyMode(ctx, models.ModeRequest{
		Mode:          req.Mode,
		OverrideTempC: req.OverrideTempC,
	})
	if err != nil {
		// Auth/listing failures against the cloud are the only fatal paths.
		h.logAndJSONError(c, http.StatusBadGateway, errApplyMode, "apply_mode_failed", err, "mode", req.Mode)
		return
	}
	c.JSON(http.StatusOK, report)
}

// @Summary      Read reconciled status
// @Description  One reconciliation read without a command dispatch; also appends a telemetry point (best-effort).
// @Tags         heating
// @Produce      json
// @Success      200  {object}  models.StateSnapshot
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/heating/status [get]
// @Security     BearerAuth
func (h *Handler) getStatus(c *gin.Context) {
	ctx := c.Request.Context()
	snap, err := h.services.Heating.GetStatus(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, errGetStatus, "get_status_failed", err)
		return
	}
	h.recordOpportunistically(ctx, snap)
	c.JSON(http.StatusOK, snap)
}

// recordOpportunistically reuses a snapshot the refresh already produced so
// the recorder does not pay a second cloud round-trip. Failures are logged
// and swallowed.
func (h *Handler) recordOpportunistically(ctx context.Context, snap models.StateSnapshot) {
	if h.services.Telemetry == nil {
		return
	}
	if err := h.services.Telemetry.Record(ctx, snap); err != nil && h.log != nil {
		h.log.Errorw("opportunistic_record_failed", "err", err)
	}
}

// @Summary      Weekly drift report
// @Description  Average device temperature, sensor temperature and delta over the trailing 7 days.
// @Tags         heating
// @Produce      json
// @Param        room  query  string  true  "Room name"
// @Success      200  {object}  models.WeeklyReport
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/heating/report [get]
// @Security     BearerAuth
func (h *Handler) getWeeklyReport(c *gin.Context) {
	room := c.Query("room")
	if room == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errRoomQuery})
		return
	}
	ctx := c.Request.Context()
	rep, err := h.services.Reporting.Weekly(ctx, room)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetReport, "weekly_report_failed", err, "room", room)
		return
	}
	c.JSON(http.StatusOK, rep)
}
