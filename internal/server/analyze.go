package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"golang.org/x/sync/errgroup"

	"github.com/lokutor-ai/delivery-coach/internal/logger"
	"github.com/lokutor-ai/delivery-coach/pkg/analyzer"
	"github.com/lokutor-ai/delivery-coach/pkg/audio"
	"github.com/lokutor-ai/delivery-coach/pkg/feedback"
)

const (
	// maxFrameBytes bounds one client audio message
	maxFrameBytes = 1 << 20

	feedbackTimeout = 30 * time.Second
)

// Message types on the analysis socket
const (
	TypeStarted = "started"
	TypeMetrics = "metrics"
	TypeFinal   = "final"
	TypeError   = "error"
	TypeStop    = "stop"
)

// ServerMessage is pushed to the client as JSON text
type ServerMessage struct {
	Type      string                 `json:"type"`
	SessionID string                 `json:"session_id,omitempty"`
	Metrics   *analyzer.VoiceMetrics `json:"metrics,omitempty"`
	Feedback  string                 `json:"feedback,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// ClientMessage is a JSON text control message from the client
type ClientMessage struct {
	Type string `json:"type"`
}

var errStopRequested = errors.New("client requested stop")

// analyze runs one analysis session per connection. Binary messages carry
// S16LE mono PCM; a {"type":"stop"} text message ends the session and the
// final metrics, with optional feedback, are sent before closing.
func (s *HTTPServer) analyze(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.originPatterns(),
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(maxFrameBytes)

	ctx := r.Context()
	q := r.URL.Query()
	fbReq := feedback.Request{
		PromptText: q.Get("prompt"),
		Tone:       feedback.Tone(q.Get("tone")),
	}
	wantFeedback := q.Get("feedback") == "1" || q.Get("feedback") == "true"

	log := logger.FromContext(r.Context(), s.log)
	ctrl := s.newController(log)
	defer ctrl.Close()

	stream := audio.NewPCMStream()
	if err := ctrl.Start(ctx, stream); err != nil {
		log.Error().Err(err).Msg("failed to start analysis")
		_ = wsjson.Write(ctx, conn, ServerMessage{Type: TypeError, Error: err.Error()})
		conn.Close(websocket.StatusInternalError, "analysis unavailable")
		return
	}
	sessionID, _ := ctrl.SessionID()
	log = logger.WithSession(log, sessionID)

	if err := wsjson.Write(ctx, conn, ServerMessage{Type: TypeStarted, SessionID: sessionID}); err != nil {
		_, _ = ctrl.Stop()
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return readLoop(gctx, conn, stream) })
	g.Go(func() error { return writeLoop(gctx, ctx, conn, ctrl.Updates()) })
	err = g.Wait()

	final, stopErr := ctrl.Stop()
	if stopErr != nil {
		log.Warn().Err(stopErr).Msg("analysis stopped with release error")
	}

	if !errors.Is(err, errStopRequested) {
		// connection dropped or write failed; nobody to send the result to
		log.Info().Err(err).Msg("analysis connection ended")
		return
	}

	msg := ServerMessage{Type: TypeFinal, SessionID: sessionID, Metrics: &final}
	if wantFeedback && s.deps.Coach.Enabled() {
		fctx, cancel := context.WithTimeout(ctx, feedbackTimeout)
		fbReq.Metrics = final
		fb, err := s.deps.Coach.Generate(fctx, fbReq)
		cancel()
		if err != nil {
			msg.Error = fmt.Sprintf("feedback unavailable: %v", err)
		} else {
			msg.Feedback = fb.Text
		}
	}

	if err := wsjson.Write(ctx, conn, msg); err != nil {
		log.Warn().Err(err).Msg("failed to send final metrics")
		return
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

func readLoop(ctx context.Context, conn *websocket.Conn, stream *audio.PCMStream) error {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		switch typ {
		case websocket.MessageBinary:
			if _, err := stream.Write(data); err != nil {
				return err
			}
		case websocket.MessageText:
			var msg ClientMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			if msg.Type == TypeStop {
				return errStopRequested
			}
		}
	}
}

// writeLoop pushes snapshots until ctx is done. Writes use connCtx: a write
// interrupted by cancellation would close the connection before the final
// report.
func writeLoop(ctx, connCtx context.Context, conn *websocket.Conn, updates <-chan analyzer.VoiceMetrics) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-updates:
			if !ok {
				return nil
			}
			if err := wsjson.Write(connCtx, conn, ServerMessage{Type: TypeMetrics, Metrics: &m}); err != nil {
				return err
			}
		}
	}
}

func (s *HTTPServer) originPatterns() []string {
	var patterns []string
	for _, o := range s.cfg.CORSAllowedOrigins {
		if o == "*" {
			return []string{"*"}
		}
		patterns = append(patterns, o)
	}
	return patterns
}
