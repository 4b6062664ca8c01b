// Package gid extracts the calling goroutine's runtime id.
//
// Go deliberately exposes no public goroutine-local-storage primitive, so
// detecting "am I running on the thread that services this queue" has no
// idiomatic library home anywhere in the retrieved pack. This parses the
// id out of runtime.Stack, the same trick every "goroutine id" snippet in
// the wild uses. It is consulted by the reference queues'
// IsOnServicingThread (which decides whether a Call/Call1 delivers inline)
// and by the Publisher's re-entrancy guard — never for notification
// ordering.
package gid

import (
	"bytes"
	"runtime"
	"strconv"
)

// Current returns the id of the calling goroutine.
//
// The runtime gives no supported way to read this value; it is scraped from
// the header line of a single-goroutine stack trace ("goroutine 123 [running]:").
// Callers must treat the result as an opaque comparison key, not a stable
// identifier across goroutine exit/reuse.
func Current() uint64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	buf = buf[:n]

	const prefix = "goroutine "
	if !bytes.HasPrefix(buf, []byte(prefix)) {
		return 0
	}
	buf = buf[len(prefix):]

	end := bytes.IndexByte(buf, ' ')
	if end < 0 {
		return 0
	}
	id, err := strconv.ParseUint(string(buf[:end]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
