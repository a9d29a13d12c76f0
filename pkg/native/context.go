// Package native holds everything a Method's resolved code can be other
// than bytecode: the trap table, the deferred native-method registry, and
// the handful of Java Class Library primitives the core implements itself
// rather than interpreting.
//
// This package knows nothing about frames, the operand stack, or class
// loading — it only sees the narrow Context surface a trapped or native
// body needs. That keeps the dependency arrow one-way: package vm imports
// native, never the reverse.
package native

// Context is the thread-shaped surface a trapped or native function body
// can call back into. The interpreter's thread type satisfies it.
type Context interface {
	// ThrowJavaException raises a Java exception of the given class on
	// the calling thread, to be observed by the interpreter once the
	// current Func returns.
	ThrowJavaException(class, message string)

	// StaticField fetches the value of a static field of class, by name.
	// Used by traps that answer with a JCL constant (java/nio/ByteOrder).
	StaticField(class, field string) (interface{}, bool)

	// HeapCopyOut copies length bytes starting at heap address srcAddr
	// into dst starting at dstPos. Used by the Bits.copyToByteArray trap.
	HeapCopyOut(srcAddr int64, dst ByteArray, dstPos, length int64) error
}

// FieldHolder is implemented by object references that carry named Java
// fields, i.e. vm.JObject. Trap bodies that read or write instance state
// (AtomicInteger.compareAndSet) go through this rather than a concrete
// type, again to avoid importing vm.
type FieldHolder interface {
	GetField(name string) interface{}
	SetField(name string, v interface{})
}

// ByteArray is implemented by reference values that back a Java byte[].
type ByteArray interface {
	SetByte(i int64, b byte)
	Len() int64
}

// Func is the shape of every trapped or native method body. It is called
// with the exact vector convertArgs produces: args[0] is always the
// calling thread (satisfying Context), followed by the receiver (if the
// method is an instance method) and then one entry per declared
// parameter, already collapsed from the JVM's two-slot wide
// representation.
type Func func(args []interface{}) (interface{}, error)
