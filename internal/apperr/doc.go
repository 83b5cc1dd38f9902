// Package apperr defines the error kinds polyglot reports to users.
//
// Every failure that can reach a user is one of the typed errors in this
// package (or wraps one). Describe turns any error into the title and
// description shown in a notification, so callers never print raw
// transport or upstream messages.
package apperr
