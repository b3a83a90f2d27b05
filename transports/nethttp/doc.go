// Package nethttp provides the terminal transport dispatching requests over
// the standard library HTTP stack.
//
// The transport sits at the innermost position of every interceptor chain:
// it converts a wire.Request into an http.Request, performs the exchange
// through an http.Client, and produces the event stream (Sent, progress
// events, ResponseHeaders, then a terminal Response or Failure). Connection
// pooling, TLS configuration and proxies are the http.Client's concern.
package nethttp
