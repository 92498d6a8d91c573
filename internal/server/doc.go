// Package server wires the HTTP surface: the websocket alarm endpoint that
// binds connections into the hub, the notification REST API backed by the
// durable store, the internal trigger endpoint, and health/metrics.
package server
