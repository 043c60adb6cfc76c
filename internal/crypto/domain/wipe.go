package domain

import "runtime"

// SecureWipe overwrites b with zeros. runtime.KeepAlive keeps the slice reachable
// after the clear so the stores stay observable and cannot be dropped as dead writes.
func SecureWipe(b []byte) {
	if len(b) == 0 {
		return
	}
	clear(b)
	runtime.KeepAlive(b)
}

// SecureWipeAll wipes every buffer in bufs.
func SecureWipeAll(bufs ...[]byte) {
	for _, b := range bufs {
		SecureWipe(b)
	}
}
