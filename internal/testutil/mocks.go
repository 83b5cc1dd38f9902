package testutil

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/sashabaranov/go-openai"
)

// RecordedRequest is a request captured by FakeOpenAI
type RecordedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   []byte
}

// FakeOpenAI is an httptest server speaking the subset of the OpenAI API
// polyglot uses: chat completions, speech and model listing.
type FakeOpenAI struct {
	*httptest.Server

	mu        sync.Mutex
	requests  []RecordedRequest
	chatReply string
	audio     []byte
	models    []string
	status    int
}

// NewFakeOpenAI starts a fake OpenAI API that is closed when the test ends
func NewFakeOpenAI(t *testing.T) *FakeOpenAI {
	t.Helper()

	f := &FakeOpenAI{
		chatReply: "Hola mundo",
		audio:     MP3Header,
		models:    []string{"gpt-4o", "gpt-4o-mini", "tts-1", "gpt-4o-transcribe"},
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.Close)
	return f
}

// BaseURL returns the URL to configure as the OpenAI base URL
func (f *FakeOpenAI) BaseURL() string {
	return f.URL + "/v1"
}

// SetChatReply sets the assistant message returned by chat completions
func (f *FakeOpenAI) SetChatReply(reply string) {
	f.mu.Lock()
	f.chatReply = reply
	f.mu.Unlock()
}

// SetModels sets the model IDs returned by the model listing
func (f *FakeOpenAI) SetModels(ids ...string) {
	f.mu.Lock()
	f.models = ids
	f.mu.Unlock()
}

// SetAudio sets the bytes returned by the speech endpoint
func (f *FakeOpenAI) SetAudio(audio []byte) {
	f.mu.Lock()
	f.audio = audio
	f.mu.Unlock()
}

// SetStatus makes every request fail with status. Zero restores success.
func (f *FakeOpenAI) SetStatus(status int) {
	f.mu.Lock()
	f.status = status
	f.mu.Unlock()
}

// Requests returns the requests received so far
func (f *FakeOpenAI) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]RecordedRequest, len(f.requests))
	copy(result, f.requests)
	return result
}

// LastChatRequest decodes the most recent chat completion request
func (f *FakeOpenAI) LastChatRequest(t *testing.T) openai.ChatCompletionRequest {
	t.Helper()

	var req openai.ChatCompletionRequest
	reqs := f.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if strings.HasSuffix(reqs[i].Path, "/chat/completions") {
			if err := json.Unmarshal(reqs[i].Body, &req); err != nil {
				t.Fatalf("Failed to decode chat request: %v", err)
			}
			return req
		}
	}
	t.Fatal("No chat completion request received")
	return req
}

func (f *FakeOpenAI) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Auth:   r.Header.Get("Authorization"),
		Body:   body,
	})
	status, reply, audio, models := f.status, f.chatReply, f.audio, f.models
	f.mu.Unlock()

	if status != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, `{"error":{"message":"fake failure","type":"server_error"}}`)
		return
	}

	switch {
	case strings.HasSuffix(r.URL.Path, "/chat/completions"):
		resp := openai.ChatCompletionResponse{
			ID:     "chatcmpl-test",
			Object: "chat.completion",
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: reply},
			}},
		}
		if reply == "" {
			resp.Choices = nil
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	case strings.HasSuffix(r.URL.Path, "/audio/speech"):
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(audio)
	case strings.HasSuffix(r.URL.Path, "/models"):
		list := openai.ModelsList{}
		for _, id := range models {
			list.Models = append(list.Models, openai.Model{ID: id, Object: "model"})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	default:
		http.NotFound(w, r)
	}
}

// FakePlayer records played audio instead of sending it to a device
type FakePlayer struct {
	mu     sync.Mutex
	Played [][]byte
	Err    error
}

// Play records audio and returns the configured error
func (p *FakePlayer) Play(ctx context.Context, audio []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Played = append(p.Played, audio)
	return nil
}

// Count returns how many buffers were played
func (p *FakePlayer) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Played)
}
