//go:build volslice_debug

package volume

// Built with -tags volslice_debug, invariant violations panic instead of
// being logged and skipped.
const debugAssertions = true
