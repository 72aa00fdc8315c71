package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/callassist/internal/events"
	"github.com/yoockh/callassist/internal/metrics"
	"github.com/yoockh/callassist/internal/models"
	"github.com/yoockh/callassist/internal/scheduler"
	"github.com/yoockh/callassist/internal/services"
	"github.com/yoockh/callassist/internal/utils"
)

type WSHandler struct {
	calls       services.CallStateService
	ingest      services.IngestService
	suggestions services.SuggestionService
	events      events.Publisher
	subscriber  events.Subscriber
	debouncer   *scheduler.Debouncer
	log         *logrus.Entry
	upgrader    websocket.Upgrader
}

func NewWSHandler(
	calls services.CallStateService,
	ingest services.IngestService,
	suggestions services.SuggestionService,
	pub events.Publisher,
	sub events.Subscriber,
	debouncer *scheduler.Debouncer,
	logger *logrus.Logger,
) *WSHandler {
	return &WSHandler{
		calls:       calls,
		ingest:      ingest,
		suggestions: suggestions,
		events:      pub,
		subscriber:  sub,
		debouncer:   debouncer,
		log:         logger.WithField("component", "ws"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type wsClientMsg struct {
	Type    string         `json:"type"` // utterance|end_call
	Text    string         `json:"text"`
	Speaker models.Speaker `json:"speaker"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (w *wsConn) writeError(code utils.Code, msg string) {
	b, _ := json.Marshal(gin.H{"type": events.TypeError, "code": code, "message": msg})
	_ = w.writeText(b)
}

func (h *WSHandler) CallWS(c *gin.Context) {
	agentID, ok := requireUserID(c)
	if !ok {
		return
	}

	callID := c.Param("call_id")
	if _, err := h.calls.Authorize(c.Request.Context(), callID, agentID); err != nil {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	defer h.debouncer.Cancel(callID)

	sub, err := h.subscriber.Subscribe(ctx, callID)
	if err != nil {
		wc.writeError(utils.CodeUnavailable, "failed to subscribe to call events")
		return
	}
	defer sub.Close()

	log := h.log.WithFields(logrus.Fields{"call_id": callID, "agent_id": agentID})

	// reader: WS -> ingest + debounced suggestions
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})

		for {
			_, data, rerr := conn.ReadMessage()
			if rerr != nil {
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))

			var msg wsClientMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				wc.writeError(utils.CodeInvalidArgument, "invalid json")
				continue
			}

			switch msg.Type {
			case "utterance":
				seg := models.TranscriptSegment{Text: msg.Text, Speaker: msg.Speaker}
				if _, err := h.ingest.Ingest(ctx, callID, seg); err != nil {
					wc.writeError(utils.CodeOf(err), errorMessage(err))
					continue
				}
				h.scheduleSuggestions(ctx, callID, msg.Text, log)

			case "end_call":
				h.debouncer.Cancel(callID)
				if _, err := h.calls.End(ctx, callID); err != nil {
					wc.writeError(utils.CodeOf(err), errorMessage(err))
					continue
				}
				_ = h.events.Publish(ctx, events.New(events.TypeCallEnded, callID))
				return

			default:
				wc.writeError(utils.CodeInvalidArgument, "unknown message type")
			}
		}
	}()

	// writer: call events -> WS
	for {
		select {
		case <-readDone:
			h.drain(sub, wc)
			return
		case <-ctx.Done():
			return
		case payload, ok := <-sub.Messages():
			if !ok {
				return
			}
			if werr := wc.writeText([]byte(payload)); werr != nil {
				return
			}
		}
	}
}

// scheduleSuggestions debounces suggestion generation per call. Only the run
// for the newest utterance may publish; older results are counted and dropped.
func (h *WSHandler) scheduleSuggestions(ctx context.Context, callID, utterance string, log *logrus.Entry) {
	h.debouncer.Trigger(ctx, callID, func(runCtx context.Context, tok scheduler.Token) {
		sentiment := models.NeutralSentiment()
		if st, err := h.calls.Get(runCtx, callID); err == nil {
			sentiment = st.Sentiment
		}

		out := h.suggestions.Generate(runCtx, utterance, sentiment)
		if !h.debouncer.IsCurrent(tok) {
			metrics.StaleSuggestions.Inc()
			return
		}
		if len(out) == 0 {
			return
		}

		ev := events.New(events.TypeSuggestions, callID)
		ev.Suggestions = out
		if err := h.events.Publish(runCtx, ev); err != nil {
			log.WithError(err).Debug("suggestions publish failed")
		}
	})
}

// drain forwards events that were already buffered when the client finished,
// so a final call_ended reaches it.
func (h *WSHandler) drain(sub events.Subscription, wc *wsConn) {
	timeout := time.After(200 * time.Millisecond)
	for {
		select {
		case payload, ok := <-sub.Messages():
			if !ok || wc.writeText([]byte(payload)) != nil {
				return
			}
		case <-timeout:
			return
		}
	}
}

func errorMessage(err error) string {
	var ae *utils.AppError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return "internal error"
}
