package asr

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"nhooyr.io/websocket"

	"github.com/winslowb/live-assistant/audio"
)

const dialTimeout = 8 * time.Second

// voskResponse covers both message shapes the server emits: {"partial": ...}
// while an utterance is in flight and {"text": ...} once it commits. Pointer
// fields keep key presence visible: {"text": ""} is an empty commit that must
// clear a live partial, not a message to ignore.
type voskResponse struct {
	Partial *string `json:"partial"`
	Text    *string `json:"text"`
}

// VoskEngine streams PCM to a vosk-server WebSocket endpoint. The server
// answers every binary chunk with exactly one JSON message, which keeps the
// Accept contract synchronous without extra plumbing.
type VoskEngine struct {
	conn   *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
}

// DialVosk connects to a vosk-server endpoint (ws://host:2700). A failed
// dial is reported as ErrUnavailable so callers degrade instead of abort.
func DialVosk(ctx context.Context, url string) (*VoskEngine, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	conn, _, err := websocket.Dial(dialCtx, url, nil)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrUnavailable, url, err)
	}

	engineCtx, engineCancel := context.WithCancel(ctx)
	e := &VoskEngine{conn: conn, ctx: engineCtx, cancel: engineCancel}

	cfg := fmt.Sprintf(`{"config": {"sample_rate": %d}}`, audio.SampleRate)
	if err := conn.Write(engineCtx, websocket.MessageText, []byte(cfg)); err != nil {
		e.Close()
		return nil, fmt.Errorf("%w: configure: %v", ErrUnavailable, err)
	}
	return e, nil
}

func (e *VoskEngine) roundtrip(msgType websocket.MessageType, payload []byte) (Hypothesis, bool, error) {
	if err := e.conn.Write(e.ctx, msgType, payload); err != nil {
		return Hypothesis{}, false, fmt.Errorf("vosk send: %w", err)
	}
	_, data, err := e.conn.Read(e.ctx)
	if err != nil {
		return Hypothesis{}, false, fmt.Errorf("vosk recv: %w", err)
	}
	var resp voskResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return Hypothesis{}, false, fmt.Errorf("vosk response parse: %w", err)
	}
	if resp.Text != nil {
		return Hypothesis{Text: strings.TrimSpace(*resp.Text), Final: true}, true, nil
	}
	if resp.Partial != nil {
		return Hypothesis{Text: strings.TrimSpace(*resp.Partial)}, true, nil
	}
	return Hypothesis{}, false, nil
}

func (e *VoskEngine) Accept(frame []byte) (Hypothesis, bool, error) {
	return e.roundtrip(websocket.MessageBinary, frame)
}

func (e *VoskEngine) Flush() (Hypothesis, bool, error) {
	return e.roundtrip(websocket.MessageText, []byte(`{"eof": 1}`))
}

func (e *VoskEngine) Close() error {
	e.cancel()
	return e.conn.Close(websocket.StatusNormalClosure, "")
}
