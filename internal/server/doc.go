// Package server implements the polyglot proxy service. It exposes the
// translate, extract-image-text and text-to-speech endpoints plus a
// websocket transcription stream, holds the upstream API key, validates
// every request at the boundary and never forwards upstream error text
// to clients.
package server
