// Package shared holds helpers for short-lived secrets.
package shared

// WipeByteArray zeroes b in place. Use it on password buffers once the
// directory call that needed them is done. A nil slice is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
