// Package wire provides the core request, response and event types for the httpwire client framework.
//
// This package defines the values that flow through an interceptor chain:
//   - Request: Immutable description of an HTTP call
//   - Header: Ordered, case-insensitive multimap of header fields
//   - Event: Stream vocabulary emitted while a request is in flight
//   - Response: Terminal event carrying status, headers and buffered body
//   - Failure: Terminal event carrying a dispatch error
//
// A dispatched request produces a lazy event stream: zero or more progress
// events followed by exactly one terminal event, after which the stream is
// closed. Helpers for producing and consuming such streams live here so that
// interceptors and transports share one vocabulary.
package wire
