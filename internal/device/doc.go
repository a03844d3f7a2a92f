// Package device owns the livestock-house device fleet: identities,
// credentials, and the per-type state machine behind INFO, CONTROL and
// SETCFG.
//
// State is a closed union of seven variants (sensor, egg counter, fan,
// heater, sprayer, feeder, drinker). Every operation that touches state
// switches over the full set, so the compiler surfaces any new type that
// is introduced without its handling.
//
// The Registry validates before it mutates: numeric arguments are
// checked against fixed domain ranges, paired thresholds against their
// relational invariants, and schedules against a hard entry cap. A
// failed check leaves the device untouched.
//
// The Registry carries no locks. The connection engine runs every
// command on one goroutine, and the registry relies on that single-writer
// discipline.
package device
