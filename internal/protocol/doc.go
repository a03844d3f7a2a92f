// Package protocol implements the CoopNet wire codec.
//
// The protocol is line-oriented ASCII: one command per request line,
// one or more response lines per command. A request line is a verb
// followed by positional arguments; verbs are matched case-insensitively
// and some have aliases (ADD/ADDDEVICE, ASSIGN/SETCOOP, COOPADD/COOP_ADD).
//
// A response line is "<code> <word> [payload]". The payload, when
// present, is separated from the word by exactly one space and is opaque
// to this package: it may be a bare token (a session token, a coop id)
// or a compact JSON document. Consumers must not re-split a payload on
// whitespace.
//
// The codec is stateless; framing and dispatch live in internal/server.
package protocol
