package mic

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Audio format expected by the transcription stream
const (
	SampleRate = 24000
	Channels   = 1
	BitDepth   = 16
)

// BytesPerSecond is the data rate of a source
const BytesPerSecond = SampleRate * Channels * BitDepth / 8

// Open opens an audio source: "-" reads raw PCM from stdin, a .wav file is
// decoded and checked for the expected format, anything else is read as
// raw PCM.
func Open(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(filepath.Ext(path), ".wav") {
		return f, nil
	}
	defer f.Close()

	pcm, err := DecodeWAV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return io.NopCloser(bytes.NewReader(pcm)), nil
}

// DecodeWAV returns the PCM payload of a 16-bit mono WAV at SampleRate
func DecodeWAV(r io.ReadSeeker) ([]byte, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("not a valid WAV file")
	}
	if d.BitDepth != BitDepth || d.NumChans != Channels || d.SampleRate != SampleRate {
		return nil, fmt.Errorf("unsupported WAV format %d Hz, %d bit, %d channels (need %d Hz, %d bit mono)",
			d.SampleRate, d.BitDepth, d.NumChans, SampleRate, BitDepth)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode WAV: %w", err)
	}

	pcm := make([]byte, 2*len(buf.Data))
	for i, sample := range buf.Data {
		binary.LittleEndian.PutUint16(pcm[2*i:], uint16(int16(sample)))
	}
	return pcm, nil
}

// EncodeWAV writes pcm as a 16-bit mono WAV at SampleRate
func EncodeWAV(w io.WriteSeeker, pcm []byte) error {
	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[2*i:])))
	}

	enc := wav.NewEncoder(w, SampleRate, BitDepth, Channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: Channels, SampleRate: SampleRate},
		Data:           samples,
		SourceBitDepth: BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to encode WAV: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finish WAV: %w", err)
	}
	return nil
}

// Recorder copies everything read from a source and saves it as a WAV
// file when closed
type Recorder struct {
	src  io.ReadCloser
	path string
	buf  bytes.Buffer
}

// NewRecorder records src to path
func NewRecorder(src io.ReadCloser, path string) *Recorder {
	return &Recorder{src: src, path: path}
}

func (r *Recorder) Read(p []byte) (int, error) {
	n, err := r.src.Read(p)
	r.buf.Write(p[:n])
	return n, err
}

// Close closes the source and writes the recording
func (r *Recorder) Close() error {
	srcErr := r.src.Close()

	f, err := os.Create(r.path)
	if err != nil {
		return fmt.Errorf("failed to create recording: %w", err)
	}
	if err := EncodeWAV(f, r.buf.Bytes()); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write recording: %w", err)
	}
	return srcErr
}
