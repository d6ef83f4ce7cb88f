// Package ari is a client for the Asterisk REST Interface carried over the
// events WebSocket.
//
// Requests are RESTRequest envelopes correlated to RESTResponse frames by
// request_id. A Client owns one Transport; Run reads frames on a single
// goroutine, resolving pending requests and dispatching events to the
// installed EventHandlers.
package ari
