// Package service contains the client adapters for the polyglot proxy.
//
// Each adapter performs exactly one HTTP call and maps the outcome to a
// typed value or an apperr error: a 2xx response without the expected
// field becomes an InvalidResponseError, any other status a ServiceError
// classified from the status code, and a transport failure a ServiceError
// carrying the transport message. Nothing is retried.
package service
