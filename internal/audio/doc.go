// Package audio synthesises speech through OpenAI TTS or a local espeak-ng
// and plays audio buffers through the first system player it finds.
package audio
