// Package codec is the high-level entry point for scripts, services and the
// CLI. It wraps the bitstream SPS/AU contract and exposes the neural encode
// and decode entry points, which are not implemented yet and return
// ErrNotImplemented.
//
// Callers should import this package rather than pkg/bitstream directly so
// that the model wiring can land behind the same functions later.
package codec
