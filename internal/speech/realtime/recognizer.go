package realtime

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"codeberg.org/snonux/polyglot/internal"
	"codeberg.org/snonux/polyglot/internal/speech"
)

// Server event types
const (
	eventCommitted  = "input_audio_buffer.committed"
	eventDelta      = "conversation.item.input_audio_transcription.delta"
	eventCompleted  = "conversation.item.input_audio_transcription.completed"
	eventFailed     = "conversation.item.input_audio_transcription.failed"
	eventError      = "error"
	codeCommitEmpty = "input_audio_buffer_commit_empty"
)

var errStreamWrite = errors.New("transcription stream write failed")

// serverEvent is the subset of server event fields the engine reads
type serverEvent struct {
	Type       string `json:"type"`
	ItemID     string `json:"item_id"`
	Delta      string `json:"delta"`
	Transcript string `json:"transcript"`
	Error      *struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type clientEvent struct {
	EventID string `json:"event_id"`
	Type    string `json:"type"`
	Audio   string `json:"audio,omitempty"`
}

type recognizer struct {
	url    string
	src    io.ReadCloser
	config Config

	conn    *websocket.Conn
	writeMu sync.Mutex

	events     chan speech.Event
	messages   chan serverEvent
	readErr    chan error
	sourceDone chan error
	pumpDone   chan struct{}

	stopCh   chan struct{}
	stopOnce sync.Once
	quit     chan struct{}
	quitOnce sync.Once
	done     chan struct{}
	started  bool
}

func newRecognizer(url string, src io.ReadCloser, config Config) *recognizer {
	return &recognizer{
		url:        url,
		src:        src,
		config:     config,
		events:     make(chan speech.Event, 16),
		messages:   make(chan serverEvent),
		readErr:    make(chan error, 1),
		sourceDone: make(chan error, 1),
		pumpDone:   make(chan struct{}),
		stopCh:     make(chan struct{}),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (r *recognizer) Events() <-chan speech.Event {
	return r.events
}

// Start connects the transcription stream and begins sending audio
func (r *recognizer) Start() error {
	if r.started {
		return errors.New("recognizer already started")
	}
	conn, err := dial(r.url, r.config.HandshakeTimeout)
	if err != nil {
		r.src.Close()
		return err
	}
	r.conn = conn
	r.started = true

	go r.read()
	go r.pump()
	go r.run()
	return nil
}

// Stop ends audio capture. Pending transcriptions are still delivered
// before EventEnd.
func (r *recognizer) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// Abort tears the stream down without delivering anything further
func (r *recognizer) Abort() {
	r.quitOnce.Do(func() {
		close(r.quit)
		if !r.started {
			r.src.Close()
			close(r.events)
		}
	})
}

func (r *recognizer) write(ev clientEvent) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if err := r.conn.WriteJSON(ev); err != nil {
		return errors.Join(errStreamWrite, err)
	}
	return nil
}

// pump reads fixed size frames from the source and appends them to the
// upstream input buffer until the source ends or capture stops.
func (r *recognizer) pump() {
	defer close(r.pumpDone)

	buf := make([]byte, frameBytes(r.config.FrameDuration))
	begin := time.Now()
	var sent time.Duration

	for {
		n, err := io.ReadFull(r.src, buf)
		if n > 0 {
			werr := r.write(clientEvent{
				EventID: internal.GenerateEventID(),
				Type:    "input_audio_buffer.append",
				Audio:   base64.StdEncoding.EncodeToString(buf[:n]),
			})
			if werr != nil {
				r.sourceDone <- werr
				return
			}
			sent += r.config.FrameDuration * time.Duration(n) / time.Duration(len(buf))
		}

		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || r.stopping() {
				err = nil
			}
			r.sourceDone <- err
			return
		}

		var wait <-chan time.Time
		if r.config.Paced {
			wait = time.After(time.Until(begin.Add(sent)))
		}
		select {
		case <-r.stopCh:
			r.sourceDone <- nil
			return
		case <-r.quit:
			return
		default:
		}
		if wait != nil {
			select {
			case <-wait:
			case <-r.stopCh:
				r.sourceDone <- nil
				return
			case <-r.quit:
				return
			}
		}
	}
}

func (r *recognizer) stopping() bool {
	select {
	case <-r.stopCh:
		return true
	default:
		return false
	}
}

func (r *recognizer) read() {
	for {
		_, data, err := r.conn.ReadMessage()
		if err != nil {
			r.readErr <- err
			return
		}
		var ev serverEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			log.Debug().Err(err).Msg("Ignoring malformed transcription event")
			continue
		}
		select {
		case r.messages <- ev:
		case <-r.done:
			return
		}
	}
}

// transcription tracks in flight items. Only run touches it.
type transcription struct {
	interim        map[string]string
	pending        map[string]bool
	awaitingCommit bool
	committed      bool
}

func (t *transcription) settled() bool {
	return t.committed && !t.awaitingCommit && len(t.pending) == 0
}

// run is the only goroutine that emits events
func (r *recognizer) run() {
	t := &transcription{interim: map[string]string{}, pending: map[string]bool{}}
	stopCh := r.stopCh
	var grace, settle <-chan time.Time

	if !r.emit(speech.Event{Type: speech.EventStart}) {
		r.finish()
		return
	}

	for {
		active := false

		select {
		case <-r.quit:
			r.finish()
			return

		case <-stopCh:
			stopCh = nil
			grace = time.After(r.config.StopGrace)

		case err := <-r.sourceDone:
			if err != nil {
				code := "audio-capture"
				if errors.Is(err, errStreamWrite) {
					code = "network"
				}
				log.Warn().Err(err).Msg("Transcription audio stream failed")
				r.fail(code)
				return
			}
			if grace == nil {
				grace = time.After(r.config.StopGrace)
			}
			if err := r.write(clientEvent{EventID: internal.GenerateEventID(), Type: "input_audio_buffer.commit"}); err != nil {
				r.fail("network")
				return
			}
			t.committed, t.awaitingCommit = true, true

		case ev := <-r.messages:
			if !r.handle(t, ev) {
				return
			}
			active = true

		case err := <-r.readErr:
			if t.settled() {
				r.end()
				return
			}
			log.Warn().Err(err).Msg("Transcription stream closed")
			r.fail("network")
			return

		case <-grace:
			log.Debug().Int("pending", len(t.pending)).Msg("Transcription stop grace expired")
			r.end()
			return

		case <-settle:
			r.end()
			return
		}

		// Any stream activity restarts the quiet window
		switch {
		case !t.settled():
			settle = nil
		case settle == nil || active:
			settle = time.After(r.config.SettleWindow)
		}
	}
}

// handle applies one server event. It returns false once the stream
// has been torn down.
func (r *recognizer) handle(t *transcription, ev serverEvent) bool {
	switch ev.Type {
	case eventCommitted:
		t.pending[ev.ItemID] = true
		t.awaitingCommit = false

	case eventDelta:
		if ev.Delta == "" {
			break
		}
		t.pending[ev.ItemID] = true
		t.interim[ev.ItemID] += ev.Delta
		if !r.emit(speech.Event{Type: speech.EventResult, Text: t.interim[ev.ItemID]}) {
			r.finish()
			return false
		}

	case eventCompleted:
		delete(t.pending, ev.ItemID)
		delete(t.interim, ev.ItemID)
		text := strings.TrimSpace(ev.Transcript)
		if text == "" {
			break
		}
		if !r.emit(speech.Event{Type: speech.EventResult, Text: text + " ", Final: true}) {
			r.finish()
			return false
		}

	case eventFailed:
		delete(t.pending, ev.ItemID)
		delete(t.interim, ev.ItemID)
		log.Warn().Str("item", ev.ItemID).Msg("Transcription failed for audio segment")

	case eventError:
		code := ""
		if ev.Error != nil {
			code = ev.Error.Code
		}
		if code == codeCommitEmpty {
			t.awaitingCommit = false
			break
		}
		log.Warn().Str("code", code).Msg("Transcription stream error")
		r.fail(relayCode(code))
		return false
	}
	return true
}

// relayCode maps stream error codes onto recognition error codes
func relayCode(code string) string {
	switch code {
	case "network", "audio-capture", "no-speech":
		return code
	default:
		return "service-error"
	}
}

func (r *recognizer) emit(ev speech.Event) bool {
	select {
	case r.events <- ev:
		return true
	case <-r.quit:
		return false
	}
}

func (r *recognizer) fail(code string) {
	r.finish(speech.Event{Type: speech.EventError, Code: code}, speech.Event{Type: speech.EventEnd})
}

func (r *recognizer) end() {
	r.finish(speech.Event{Type: speech.EventEnd})
}

// finish releases the connection and the source, delivers the final
// events and closes Events
func (r *recognizer) finish(final ...speech.Event) {
	close(r.done)
	r.stopOnce.Do(func() { close(r.stopCh) })

	r.writeMu.Lock()
	_ = r.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	r.writeMu.Unlock()
	r.conn.Close()

	select {
	case <-r.pumpDone:
	case <-time.After(2 * r.config.FrameDuration):
	}
	r.src.Close()

	for _, ev := range final {
		if !r.emit(ev) {
			break
		}
	}
	close(r.events)
}
