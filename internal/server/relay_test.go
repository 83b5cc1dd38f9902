package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"codeberg.org/snonux/polyglot/internal/api"
	"codeberg.org/snonux/polyglot/internal/credential"
)

type fakeRealtime struct {
	server   *httptest.Server
	auth     chan string
	received chan map[string]any
}

// newFakeRealtime starts an upstream that records client events and answers
// a commit with a completed transcription
func newFakeRealtime(t *testing.T, status int) *fakeRealtime {
	t.Helper()

	f := &fakeRealtime{
		auth:     make(chan string, 1),
		received: make(chan map[string]any, 16),
	}
	up := websocket.Upgrader{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != 0 {
			w.WriteHeader(status)
			return
		}
		f.auth <- r.Header.Get("Authorization")
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			var evt map[string]any
			if err := conn.ReadJSON(&evt); err != nil {
				return
			}
			f.received <- evt
			if evt["type"] == "input_audio_buffer.commit" {
				_ = conn.WriteJSON(map[string]any{
					"type":       "conversation.item.input_audio_transcription.completed",
					"transcript": "hello world",
				})
			}
		}
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeRealtime) url() string {
	return "ws" + strings.TrimPrefix(f.server.URL, "http")
}

func (f *fakeRealtime) next(t *testing.T) map[string]any {
	t.Helper()
	select {
	case evt := <-f.received:
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for upstream event")
		return nil
	}
}

func newRelayService(t *testing.T, upstreamURL, key string) *httptest.Server {
	t.Helper()

	creds := credential.NewStore()
	if key != "" {
		if err := creds.Set(key); err != nil {
			t.Fatal(err)
		}
	}
	relay := DefaultRelayConfig(creds)
	relay.URL = upstreamURL

	f := newFixture(t)
	svc, err := NewService(DefaultConfig(), Backends{
		Translator: f.translator,
		Extractor:  f.extractor,
		Speech:     f.speech,
		Relay:      relay,
	})
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(svc.Router())
	t.Cleanup(ts.Close)
	return ts
}

func dialStream(t *testing.T, serviceURL, query string) *websocket.Conn {
	t.Helper()

	u := "ws" + strings.TrimPrefix(serviceURL, "http") + api.TranscriptionStreamPath + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	return conn
}

func TestRelayForwardsAudioAndTranscripts(t *testing.T) {
	upstream := newFakeRealtime(t, 0)
	ts := newRelayService(t, upstream.url(), "sk-server-only")
	conn := dialStream(t, ts.URL, "?language=de-DE")

	select {
	case auth := <-upstream.auth:
		if auth != "Bearer sk-server-only" {
			t.Errorf("Authorization = %q", auth)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Upstream never dialed")
	}

	update := upstream.next(t)
	if update["type"] != "transcription_session.update" {
		t.Fatalf("First upstream event = %v, want session update", update["type"])
	}
	session := update["session"].(map[string]any)
	transcription := session["input_audio_transcription"].(map[string]any)
	if transcription["language"] != "de" {
		t.Errorf("language = %v, want de", transcription["language"])
	}
	if transcription["model"] != DefaultRelayModel {
		t.Errorf("model = %v, want %s", transcription["model"], DefaultRelayModel)
	}

	events := []map[string]any{
		{"type": "transcription_session.update", "session": map[string]any{"model": "whisper-1"}},
		{"type": "input_audio_buffer.append", "audio": "AAAA"},
		{"type": "input_audio_buffer.commit"},
	}
	for _, evt := range events {
		if err := conn.WriteJSON(evt); err != nil {
			t.Fatalf("WriteJSON failed: %v", err)
		}
	}

	// The client's session update is dropped
	if got := upstream.next(t)["type"]; got != "input_audio_buffer.append" {
		t.Errorf("Upstream event = %v, want input_audio_buffer.append", got)
	}
	if got := upstream.next(t)["type"]; got != "input_audio_buffer.commit" {
		t.Errorf("Upstream event = %v, want input_audio_buffer.commit", got)
	}

	var reply map[string]any
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if reply["transcript"] != "hello world" {
		t.Errorf("transcript = %v, want hello world", reply["transcript"])
	}
}

func TestRelayErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		key      string
		wantCode string
	}{
		{"no credential", 0, "", "unauthorized"},
		{"upstream rejects key", http.StatusUnauthorized, "sk-bad", "unauthorized"},
		{"upstream rate limit", http.StatusTooManyRequests, "sk-ok", "rate_limited"},
		{"upstream down", http.StatusBadGateway, "sk-ok", "network"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upstream := newFakeRealtime(t, tt.status)
			ts := newRelayService(t, upstream.url(), tt.key)
			conn := dialStream(t, ts.URL, "")

			_, data, err := conn.ReadMessage()
			if err != nil {
				t.Fatalf("ReadMessage failed: %v", err)
			}
			var evt relayErrorEvent
			if err := json.Unmarshal(data, &evt); err != nil {
				t.Fatal(err)
			}
			if evt.Type != "error" || evt.Error.Code != tt.wantCode {
				t.Errorf("Got %s/%s, want error/%s", evt.Type, evt.Error.Code, tt.wantCode)
			}
			if strings.Contains(string(data), "sk-") {
				t.Error("Credential leaked to client")
			}
		})
	}
}

func TestRelayDisabled(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.service.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + api.TranscriptionStreamPath)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", resp.StatusCode)
	}
}
