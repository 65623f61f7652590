//go:build !volslice_debug

package volume

const debugAssertions = false
