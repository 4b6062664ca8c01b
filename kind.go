package listeners

import "reflect"

// KindOf derives a Kind from a function value, copying the bytes of its
// code pointer the way the original keys a Proxy off a pointer-to-member
// value: two calls to KindOf on the same bound method or function produce
// equal Kinds. A func literal yields the same Kind every time it is
// evaluated, whatever state it closes over, since the code pointer belongs
// to the literal in the source, not to each closure value built from it.
//
// Most callers are better served by minting a package-level Kind constant
// by hand (Kind{0: 1}, Kind{0: 2}, ...) — KindOf exists for parity with the
// original's "identity of a pointer-to-member-function" design note, not
// because reflecting a function pointer is the recommended way to name a
// notification kind in Go.
func KindOf(fn any) Kind {
	var k Kind
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return k
	}
	ptr := v.Pointer()
	for i := 0; i < 8 && i < len(k); i++ {
		k[i] = byte(ptr >> (8 * i))
	}
	return k
}
