// Package mic provides audio sources for speech capture. Every source
// yields raw PCM16 little-endian mono audio at SampleRate.
package mic
