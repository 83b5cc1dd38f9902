//go:build portaudio

package mic

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const framesPerBuffer = SampleRate / 10

// Microphone reads the default input device through PortAudio
type Microphone struct {
	stream  *portaudio.Stream
	samples []int16
	pending []byte

	closeOnce sync.Once
}

// NewMicrophone opens and starts the default input device
func NewMicrophone() (io.ReadCloser, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	device, err := portaudio.DefaultInputDevice()
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to get default input device: %w", err)
	}

	params := portaudio.LowLatencyParameters(device, nil)
	params.Input.Channels = Channels
	params.SampleRate = SampleRate
	params.FramesPerBuffer = framesPerBuffer

	m := &Microphone{samples: make([]int16, framesPerBuffer)}
	m.stream, err = portaudio.OpenStream(params, m.samples)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}
	if err := m.stream.Start(); err != nil {
		m.stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to start input stream: %w", err)
	}
	return m, nil
}

func (m *Microphone) Read(p []byte) (int, error) {
	if len(m.pending) == 0 {
		if err := m.stream.Read(); err != nil {
			return 0, fmt.Errorf("failed to read microphone: %w", err)
		}
		m.pending = make([]byte, 2*len(m.samples))
		for i, s := range m.samples {
			binary.LittleEndian.PutUint16(m.pending[2*i:], uint16(s))
		}
	}
	n := copy(p, m.pending)
	m.pending = m.pending[n:]
	return n, nil
}

// Close stops the stream and releases PortAudio
func (m *Microphone) Close() error {
	var err error
	m.closeOnce.Do(func() {
		if stopErr := m.stream.Stop(); stopErr != nil {
			err = stopErr
		}
		if closeErr := m.stream.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		portaudio.Terminate()
	})
	return err
}
