// Package resource provides an explicit controller for memory accounting,
// worker concurrency and lookup pacing.
//
// Callers thread a *Controller through options; nothing in this module keeps
// process-global resource state.
package resource
