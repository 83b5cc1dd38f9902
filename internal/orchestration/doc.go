// Package orchestration ties the input sources (typed text, speech capture
// and image extraction) to the translation, speech and clipboard adapters.
//
// A Session holds the state a single user interface works on: the input
// text and where it came from, the target language, the last result and
// a loading flag. Only one translation runs at a time.
package orchestration
