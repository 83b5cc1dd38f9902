// Package processor runs the polyglot commands. It builds the proxy
// service with its upstream providers for serve, and wires the client
// adapters, the image pipeline, speech capture and the orchestration
// session together for every other command. This package serves as the
// main coordinator between all other components.
package processor
