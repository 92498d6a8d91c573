// Package hub implements the process-local connection registry using the
// actor pattern.
//
// A single goroutine owns the username -> connections map and processes
// register/unregister/deliver commands from a channel (no mutexes).
// Per-connection write goroutines isolate slow clients so one stuck socket
// never stalls fan-out to anyone else.
package hub
