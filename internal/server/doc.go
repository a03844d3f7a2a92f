// Package server implements the TCP protocol engine: the connection
// listener with line framing, and the command dispatcher that binds
// parsed verbs to the device, coop and session registries.
//
// Concurrency model: every connection gets its own reader goroutine,
// but readers only frame lines and forward them. All commands, across
// all connections, execute serially on one dispatch goroutine, so the
// registries never see concurrent access and carry no locks.
package server
