package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"codeberg.org/snonux/polyglot/internal"
	"codeberg.org/snonux/polyglot/internal/credential"
	"codeberg.org/snonux/polyglot/internal/languages"
)

// Realtime transcription defaults
const (
	DefaultRelayURL   = "wss://api.openai.com/v1/realtime?intent=transcription"
	DefaultRelayModel = "gpt-4o-transcribe"
)

// Client events forwarded upstream. Everything else, session updates
// included, is dropped so clients cannot reconfigure the upstream session.
var relayedClientEvents = map[string]bool{
	"input_audio_buffer.append": true,
	"input_audio_buffer.commit": true,
	"input_audio_buffer.clear":  true,
}

// RelayConfig configures the transcription stream relay
type RelayConfig struct {
	URL              string
	Model            string
	HandshakeTimeout time.Duration
	Creds            *credential.Store
}

// DefaultRelayConfig returns default configuration
func DefaultRelayConfig(creds *credential.Store) *RelayConfig {
	return &RelayConfig{
		URL:              DefaultRelayURL,
		Model:            DefaultRelayModel,
		HandshakeTimeout: 10 * time.Second,
		Creds:            creds,
	}
}

type relayEvent struct {
	Type string `json:"type"`
}

// relayErrorEvent mirrors the upstream error event shape
type relayErrorEvent struct {
	EventID string          `json:"event_id"`
	Type    string          `json:"type"`
	Error   relayErrorField `json:"error"`
}

type relayErrorField struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  32 * 1024,
	WriteBufferSize: 32 * 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// sessionUpdate builds the transcription session configuration sent upstream
func (r *RelayConfig) sessionUpdate(language string) map[string]interface{} {
	transcription := map[string]interface{}{"model": r.Model}
	if language != "" {
		transcription["language"] = languages.BaseCode(language)
	}
	return map[string]interface{}{
		"event_id": internal.GenerateEventID(),
		"type":     "transcription_session.update",
		"session": map[string]interface{}{
			"input_audio_format":        "pcm16",
			"input_audio_transcription": transcription,
			"turn_detection": map[string]interface{}{
				"type": "server_vad",
			},
		},
	}
}

func (r *RelayConfig) dial(c *gin.Context) (*websocket.Conn, int, error) {
	key, err := r.Creds.APIKey()
	if err != nil {
		return nil, http.StatusUnauthorized, err
	}

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+key)
	headers.Set("OpenAI-Beta", "realtime=v1")

	dialer := websocket.Dialer{HandshakeTimeout: r.HandshakeTimeout}
	conn, resp, err := dialer.DialContext(c.Request.Context(), r.URL, headers)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return nil, status, err
	}
	return conn, 0, nil
}

func writeRelayError(conn *websocket.Conn, code, message string) {
	_ = conn.WriteJSON(relayErrorEvent{
		EventID: internal.GenerateEventID(),
		Type:    "error",
		Error:   relayErrorField{Type: "relay_error", Code: code, Message: message},
	})
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (s *Service) handleTranscriptionStream(c *gin.Context) {
	relay := s.backends.Relay
	if relay == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Transcription stream not configured"})
		return
	}

	client, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Debug().Err(err).Msg("Failed to upgrade transcription stream")
		return
	}
	defer client.Close()

	upstreamConn, status, err := relay.dial(c)
	if err != nil {
		log.Error().Err(err).Int("status", status).Msg("Failed to connect transcription upstream")
		switch {
		case errors.Is(err, credential.ErrNoCredential), status == http.StatusUnauthorized:
			writeRelayError(client, "unauthorized", "Transcription service rejected its credentials")
		case status == http.StatusTooManyRequests:
			writeRelayError(client, "rate_limited", "Rate limit exceeded. Please try again later.")
		default:
			writeRelayError(client, "network", "Transcription service temporarily unavailable")
		}
		return
	}
	defer upstreamConn.Close()

	language := c.Query("language")
	if err := upstreamConn.WriteJSON(relay.sessionUpdate(language)); err != nil {
		log.Error().Err(err).Msg("Failed to configure transcription session")
		writeRelayError(client, "network", "Transcription service temporarily unavailable")
		return
	}
	log.Info().Str("language", language).Str("model", relay.Model).Msg("Transcription stream opened")

	pipe(client, upstreamConn)
	log.Info().Msg("Transcription stream closed")
}

// pipe copies messages both ways until either side closes. Each connection
// has exactly one writer goroutine.
func pipe(client, upstreamConn *websocket.Conn) {
	var once sync.Once
	done := make(chan struct{})
	stop := func() {
		once.Do(func() {
			close(done)
			_ = client.Close()
			_ = upstreamConn.Close()
		})
	}

	go func() {
		defer stop()
		for {
			msgType, data, err := client.ReadMessage()
			if err != nil {
				return
			}
			if msgType != websocket.TextMessage {
				continue
			}
			var evt relayEvent
			if json.Unmarshal(data, &evt) != nil || !relayedClientEvents[evt.Type] {
				log.Debug().Str("type", evt.Type).Msg("Dropped client event")
				continue
			}
			if err := upstreamConn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}()

	go func() {
		defer stop()
		for {
			msgType, data, err := upstreamConn.ReadMessage()
			if err != nil {
				return
			}
			if err := client.WriteMessage(msgType, data); err != nil {
				return
			}
		}
	}()

	<-done
}
