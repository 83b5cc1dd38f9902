// Package models lists the OpenAI models available to the service key and
// groups them by what polyglot uses them for: translation, image text
// extraction, speech synthesis and transcription.
package models
