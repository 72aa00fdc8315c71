package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/callassist/internal/events"
	"github.com/yoockh/callassist/internal/models"
	"github.com/yoockh/callassist/internal/services"
)

type CallHandler struct {
	calls      services.CallStateService
	ingest     services.IngestService
	utterances services.UtteranceService
	events     events.Publisher
	log        *logrus.Entry
}

func NewCallHandler(calls services.CallStateService, ingest services.IngestService, utterances services.UtteranceService, pub events.Publisher, logger *logrus.Logger) *CallHandler {
	if utterances == nil {
		utterances = services.NopUtteranceService{}
	}
	if pub == nil {
		pub = events.Nop{}
	}
	return &CallHandler{
		calls:      calls,
		ingest:     ingest,
		utterances: utterances,
		events:     pub,
		log:        logger.WithField("component", "calls"),
	}
}

type StartCallResponse struct {
	CallID    string `json:"call_id"`
	IsActive  bool   `json:"is_active"`
	StartedAt string `json:"started_at"`
}

func (h *CallHandler) Start(c *gin.Context) {
	agentID, ok := requireUserID(c)
	if !ok {
		return
	}

	st, err := h.calls.Start(c.Request.Context(), agentID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, StartCallResponse{
		CallID:    st.CallID,
		IsActive:  st.IsActive,
		StartedAt: st.StartedAt.Format(time.RFC3339),
	})
}

func (h *CallHandler) Get(c *gin.Context) {
	agentID, ok := requireUserID(c)
	if !ok {
		return
	}

	st, err := h.calls.Authorize(c.Request.Context(), c.Param("call_id"), agentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *CallHandler) End(c *gin.Context) {
	agentID, ok := requireUserID(c)
	if !ok {
		return
	}

	callID := c.Param("call_id")
	if _, err := h.calls.Authorize(c.Request.Context(), callID, agentID); err != nil {
		writeError(c, err)
		return
	}

	ended, err := h.calls.End(c.Request.Context(), callID)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := h.events.Publish(c.Request.Context(), events.New(events.TypeCallEnded, callID)); err != nil {
		h.log.WithError(err).WithField("call_id", callID).Debug("call_ended publish failed")
	}
	c.JSON(http.StatusOK, ended)
}

type IngestUtteranceRequest struct {
	Text    string         `json:"text" binding:"required"`
	Speaker models.Speaker `json:"speaker"` // agent|customer, default customer
}

func (h *CallHandler) Ingest(c *gin.Context) {
	agentID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req IngestUtteranceRequest
	if !bindJSON(c, "CallHandler.Ingest", &req) {
		return
	}

	callID := c.Param("call_id")
	if _, err := h.calls.Authorize(c.Request.Context(), callID, agentID); err != nil {
		writeError(c, err)
		return
	}

	res, err := h.ingest.Ingest(c.Request.Context(), callID, models.TranscriptSegment{Text: req.Text, Speaker: req.Speaker})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"call_id":  callID,
		"sequence": res.Sequence,
		"status":   models.StatusPending,
	})
}

func (h *CallHandler) ListUtterances(c *gin.Context) {
	agentID, ok := requireUserID(c)
	if !ok {
		return
	}

	callID := c.Param("call_id")
	if _, err := h.calls.Authorize(c.Request.Context(), callID, agentID); err != nil {
		writeError(c, err)
		return
	}

	limit := int64(50)
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	rows, err := h.utterances.ListByCall(c.Request.Context(), callID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"call_id":    callID,
		"utterances": rows,
	})
}
