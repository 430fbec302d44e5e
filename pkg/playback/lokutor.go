package playback

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// LokutorSynth synthesizes speech over Lokutor's websocket API. One
// connection is reused across requests and dropped on any transport error.
type LokutorSynth struct {
	apiKey string
	host   string
	scheme string
	speed  float64
	mu     sync.Mutex
	conn   *websocket.Conn
}

type synthRequest struct {
	Text    string  `json:"text"`
	Voice   Voice   `json:"voice"`
	Lang    string  `json:"lang"`
	Speed   float64 `json:"speed"`
	Steps   int     `json:"steps"`
	Visemes bool    `json:"visemes"`
}

func NewLokutorSynth(apiKey string) *LokutorSynth {
	return &LokutorSynth{
		apiKey: apiKey,
		host:   "api.lokutor.com",
		scheme: "wss",
		speed:  1.0,
	}
}

// getConn must be called with t.mu held.
func (t *LokutorSynth) getConn(ctx context.Context) (*websocket.Conn, error) {
	if t.conn != nil {
		return t.conn, nil
	}

	u := url.URL{Scheme: t.scheme, Host: t.host, Path: "/ws", RawQuery: "api_key=" + url.QueryEscape(t.apiKey)}
	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to lokutor: %w", err)
	}

	conn.SetReadLimit(10 * 1024 * 1024)

	t.conn = conn
	return conn, nil
}

func (t *LokutorSynth) Synthesize(ctx context.Context, text string, voice Voice, lang Language) ([]byte, error) {
	var pcm []byte
	err := t.StreamSynthesize(ctx, text, voice, lang, func(chunk []byte) error {
		pcm = append(pcm, chunk...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pcm, nil
}

// StreamSynthesize sends one request and hands each binary audio frame to
// onChunk until the server signals EOS.
func (t *LokutorSynth) StreamSynthesize(ctx context.Context, text string, voice Voice, lang Language, onChunk func([]byte) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	conn, err := t.getConn(ctx)
	if err != nil {
		return err
	}

	req := synthRequest{
		Text:  text,
		Voice: voice,
		Lang:  string(lang),
		Speed: t.speed,
		Steps: 6,
	}

	if err := wsjson.Write(ctx, conn, req); err != nil {
		t.drop(conn, "failed to write json")
		return fmt.Errorf("failed to send synthesis request: %w", err)
	}

	for {
		messageType, payload, err := conn.Read(ctx)
		if err != nil {
			t.drop(conn, "failed to read")
			return fmt.Errorf("failed to read from lokutor: %w", err)
		}

		switch messageType {
		case websocket.MessageBinary:
			if err := onChunk(payload); err != nil {
				return err
			}
		case websocket.MessageText:
			msg := string(payload)
			if msg == "EOS" {
				return nil
			}
			if strings.HasPrefix(msg, "ERR:") {
				return fmt.Errorf("lokutor error: %s", strings.TrimSpace(msg[4:]))
			}
		}
	}
}

func (t *LokutorSynth) drop(conn *websocket.Conn, reason string) {
	t.conn = nil
	conn.Close(websocket.StatusAbnormalClosure, reason)
}

func (t *LokutorSynth) Name() string {
	return "lokutor"
}

func (t *LokutorSynth) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		err := t.conn.Close(websocket.StatusNormalClosure, "")
		t.conn = nil
		return err
	}
	return nil
}
