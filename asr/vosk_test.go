package asr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nhooyr.io/websocket"

	"github.com/winslowb/live-assistant/transcript"
)

// voskServer answers the config message silently, then replies to each
// following message with the next scripted JSON line.
func voskServer(t *testing.T, replies []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		ctx := r.Context()
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}
		for _, reply := range replies {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
			if err := conn.Write(ctx, websocket.MessageText, []byte(reply)); err != nil {
				return
			}
		}
	}))
}

func dialTestVosk(t *testing.T, srv *httptest.Server) *VoskEngine {
	t.Helper()
	eng, err := DialVosk(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"))
	if err != nil {
		t.Fatalf("DialVosk: %v", err)
	}
	return eng
}

func TestVoskResponses(t *testing.T) {
	srv := voskServer(t, []string{
		`{"partial": "hel"}`,
		`{"partial": ""}`,
		`{"text": " hello world "}`,
		`{"text": ""}`,
	})
	defer srv.Close()
	eng := dialTestVosk(t, srv)
	defer eng.Close()

	want := []Hypothesis{
		{Text: "hel"},
		{Text: ""},
		{Text: "hello world", Final: true},
		{Text: "", Final: true},
	}
	for i, w := range want {
		hyp, ok, err := eng.Accept(make([]byte, 4))
		if err != nil {
			t.Fatalf("Accept %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("Accept %d: ok = false, want hypothesis %+v", i, w)
		}
		if hyp != w {
			t.Errorf("Accept %d = %+v, want %+v", i, hyp, w)
		}
	}
}

func TestVoskEmptyFinalClearsStalePartial(t *testing.T) {
	srv := voskServer(t, []string{
		`{"partial": "uh let me"}`,
		`{"text": ""}`,
		`{"text": ""}`,
	})
	defer srv.Close()
	eng := dialTestVosk(t, srv)

	eventLog := transcript.NewLog()
	a := NewAdapter(eng, eventLog, nil, nil)
	runAdapter(t, a, feed(2))

	if p, live := eventLog.Partial(); live {
		t.Errorf("stale partial still live after empty final: %q", p.Text)
	}
	if finals := eventLog.Finals(); len(finals) != 0 {
		t.Errorf("empty final appended finals: %v", finals)
	}
}
