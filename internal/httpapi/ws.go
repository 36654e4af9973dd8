package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/noventrax/tutor/internal/feedback"
	"github.com/noventrax/tutor/internal/protocol"
)

const (
	wsReadLimit    = 64 << 10
	wsIdleTimeout  = 120 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// handleChatWS serves the same chat engine over a websocket. Frames from one
// connection are handled in order; replies are written by a single writer.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	log := s.log.WithField("conn_id", connID)
	log.Info("chat websocket connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	inbound := make(chan any, 64)
	outbound := make(chan any, 64)

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		defer close(outbound)
		for msg := range inbound {
			out := s.handleFrame(ctx, msg)
			select {
			case <-ctx.Done():
				return
			case outbound <- out:
			}
		}
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range outbound {
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				log.WithError(err).Warn("websocket write failed")
				cancel()
				return
			}
			s.observeFrame("outbound")
		}
	}()

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))
		return nil
	})

readLoop:
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))
		s.observeFrame("inbound")

		var parsed any
		parsed, err = protocol.ParseClientMessage(data)
		if err != nil {
			parsed = protocol.ErrorEvent{
				Type:   protocol.TypeErrorEvent,
				Code:   "invalid_client_message",
				Detail: err.Error(),
			}
		}
		select {
		case <-ctx.Done():
			break readLoop
		case inbound <- parsed:
		}
	}

	cancel()
	close(inbound)
	<-workerDone
	<-writerDone
	log.Info("chat websocket disconnected")
}

func (s *Server) handleFrame(ctx context.Context, msg any) any {
	switch m := msg.(type) {
	case protocol.ErrorEvent:
		return m
	case protocol.ClientChat:
		requestID := uuid.NewString()
		reply := s.engine.Handle(ctx, m.Message)
		if reply.Err != nil {
			return chatErrorEvent(requestID, reply.Err)
		}
		return protocol.AssistantReply{
			Type:      protocol.TypeAssistantReply,
			RequestID: requestID,
			Kind:      string(reply.Kind),
			Reply:     reply.Text,
		}
	case protocol.ClientFeedback:
		var rating feedback.Rating
		if len(m.Rating) > 0 {
			if err := json.Unmarshal(m.Rating, &rating); err != nil {
				rating = feedback.Rating{}
			}
		}
		s.engine.RecordFeedback(rating, m.Comment, m.PageURL)
		return protocol.SystemEvent{Type: protocol.TypeSystemEvent, Code: "feedback_received"}
	case protocol.ClientControl:
		s.engine.Reset()
		return protocol.SystemEvent{Type: protocol.TypeSystemEvent, Code: "conversation_reset"}
	default:
		return protocol.ErrorEvent{Type: protocol.TypeErrorEvent, Code: "unsupported_message"}
	}
}

func chatErrorEvent(requestID string, err error) protocol.ErrorEvent {
	ev := protocol.ErrorEvent{
		Type:      protocol.TypeErrorEvent,
		RequestID: requestID,
		Code:      "completion_failed",
		Detail:    errorText(err),
	}
	if cerr, ok := asCompletionError(err); ok {
		ev.Code = "completion_" + string(cerr.Kind)
		ev.Retryable = cerr.Retryable
	}
	return ev
}

func (s *Server) observeFrame(direction string) {
	if s.metrics != nil {
		s.metrics.WSMessages.WithLabelValues(direction).Inc()
	}
}
