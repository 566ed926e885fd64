package gestureHandler

import (
	"encoding/json"
	"time"

	"ProjectGesture/internal/api/gesture"
	contextPkg "ProjectGesture/pkg/context"
	"ProjectGesture/pkg/log"

	"github.com/gofiber/websocket/v2"
	"golang.org/x/net/context"
)

const (
	maxReadTimeout  = 60 * time.Second
	maxWriteTimeout = 10 * time.Second
	frameTimeout    = 90 * time.Second
)

func (h *GestureHandler) handleGestureStream(c *websocket.Conn) {
	h.log.Info("Gesture stream client connected")
	defer h.log.Info("Gesture stream client disconnected")

	c.SetPingHandler(func(data string) error {
		h.log.Debug("Received ping, sending pong")
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			h.log.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	for {
		if err := c.SetReadDeadline(time.Now().Add(maxReadTimeout)); err != nil {
			h.log.Errorf("Error setting read deadline: %v", err)
			break
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Errorf("Gesture stream error: %v", err)
			} else {
				h.log.Info("Gesture stream connection closed")
			}
			break
		}

		if messageType != websocket.TextMessage {
			h.log.Warnf("Received unexpected message type: %d", messageType)
			continue
		}

		var frame gesture.StreamFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			h.log.Errorf("Error decoding gesture frame: %v", err)
			h.closeStream(c, websocket.CloseInvalidFramePayloadData, "malformed gesture frame")
			break
		}

		if err := h.validator.Struct(frame); err != nil {
			h.log.Errorf("Invalid gesture frame: %v", err)
			h.closeStream(c, websocket.CloseInvalidFramePayloadData, "invalid gesture frame")
			break
		}

		requestID, err := h.utils.NewULIDFromTimestamp(time.Now())
		if err != nil {
			h.log.Errorf("Error generating request ID: %v", err)
			h.closeStream(c, websocket.CloseInternalServerErr, "internal error")
			break
		}

		response, err := h.processStreamFrame(requestID, frame)
		if err != nil {
			h.log.WithFields(log.Fields{
				"request_id":   requestID,
				"user_id":      frame.UserID,
				"gesture_type": frame.GestureType,
				"error":        err.Error(),
			}).Error("Gesture pipeline failed for stream frame")
			h.closeStream(c, websocket.CloseInternalServerErr, "gesture processing failed")
			break
		}

		if err := c.SetWriteDeadline(time.Now().Add(maxWriteTimeout)); err != nil {
			h.log.Errorf("Error setting write deadline: %v", err)
			break
		}

		if err := c.WriteJSON(response); err != nil {
			h.log.Errorf("Error writing JSON response: %v", err)
			break
		}

		if err := c.SetWriteDeadline(time.Time{}); err != nil {
			h.log.Errorf("Error resetting write deadline: %v", err)
			break
		}
	}
}

// processStreamFrame runs the pipeline for one decoded frame. Frames on a
// single connection are handled strictly one at a time by the read loop.
func (h *GestureHandler) processStreamFrame(requestID string, frame gesture.StreamFrame) (gesture.StreamResponse, error) {
	c := contextPkg.WithRequestID(context.Background(), requestID)
	c, cancel := context.WithTimeout(c, frameTimeout)
	defer cancel()

	record, err := h.gestureService.ProcessGesture(c, frame.UserID, frame.GestureType, frame.Data)
	if err != nil {
		return gesture.StreamResponse{}, err
	}

	return gesture.StreamResponse{
		GestureID:        record.ID,
		Intention:        record.Intention,
		Confidence:       record.ConfidenceScore,
		Text:             record.GeneratedText,
		AudioURL:         record.AudioURL,
		ProcessingTimeMs: record.ProcessingTimeMs,
	}, nil
}

func (h *GestureHandler) closeStream(c *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	if err := c.WriteControl(websocket.CloseMessage, msg, time.Now().Add(5*time.Second)); err != nil {
		h.log.Errorf("Error sending close message: %v", err)
	}
}
