package vm

import (
	"github.com/gojvm-core/gojvm/pkg/native"
)

// Thread is one logical JVM thread, multiplexed onto the single
// cooperative executor (§5). It satisfies native.Context so trapped and
// deferred-native bodies can throw exceptions and read heap/static state
// without pkg/native depending on this package.
type Thread struct {
	Name string
	RT   *Runtime

	pending    *JavaException
	frameDepth int
}

// NewThread creates a logical thread named name against rt.
func NewThread(name string, rt *Runtime) *Thread {
	return &Thread{Name: name, RT: rt}
}

// ThrowJavaException implements native.Context: it records a pending
// exception on the thread. The interpreter checks TakePendingException
// after every native/trapped call and unwinds if one is set, exactly as
// it would for a bytecode athrow.
func (t *Thread) ThrowJavaException(class, message string) {
	t.pending = NewJavaException(class, message)
}

// TakePendingException returns the thread's currently pending exception, if
// any, and clears it. Interpreter unwind logic calls this once per
// native/trapped invocation boundary.
func (t *Thread) TakePendingException() *JavaException {
	e := t.pending
	t.pending = nil
	return e
}

// StaticField implements native.Context: read class's static field by
// name, resolving and initializing the class first if necessary is the
// caller's responsibility — this only looks at already-initialized
// classes, matching getInitializedClass's synchronous-after-init
// contract (§6).
func (t *Thread) StaticField(class, field string) (interface{}, bool) {
	c, ok := t.RT.GetInitializedClass(class)
	if !ok {
		return nil, false
	}
	v, ok := c.StaticGet(field)
	if !ok {
		return nil, false
	}
	return v.Raw(), true
}

// HeapCopyOut implements native.Context for the Bits.copyToByteArray
// trap: copy length bytes out of the runtime's heap into dst.
func (t *Thread) HeapCopyOut(srcAddr int64, dst native.ByteArray, dstPos, length int64) error {
	for i := int64(0); i < length; i++ {
		dst.SetByte(dstPos+i, t.RT.Heap.GetByte(srcAddr+i))
	}
	return nil
}

var _ native.Context = (*Thread)(nil)
