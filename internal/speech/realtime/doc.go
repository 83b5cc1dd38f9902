// Package realtime is a speech recognition engine backed by the polyglot
// service's transcription stream. Audio is streamed over a websocket in
// input_audio_buffer.append events; transcription deltas become interim
// results and completed transcriptions become final results.
package realtime
