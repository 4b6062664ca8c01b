// Package listeners implements a concurrent listener-notification fabric:
// subscribers register on a CallQueue of their choosing, publishers
// broadcast or target notifications, and each CallQueue decides for itself
// when those notifications actually run on its own servicing thread.
//
// The core types are a Publisher (the registry subscribers attach to and
// callers broadcast through), a Group (one per distinct CallQueue, holding
// the as-of-add entry list for that queue), a Proxy (one per distinct
// notification kind, coalescing bursts of Update calls), and a Call (a
// pool-allocated, reference-counted unit of deferred work). Typed wraps a
// Publisher with a generic facade so callers work in terms of a concrete
// listener interface instead of `any`.
//
// None of this talks to a network, a disk, or another process: delivery is
// strictly in-process, and an Add only ever observes broadcasts made after
// it joined.
package listeners
