package vm

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/gojvm-core/gojvm/pkg/classfile"
	"github.com/gojvm-core/gojvm/pkg/native"
)

// codeVariant is the tagged union a Method's code slot holds after
// dispatch resolution (§4.4): bytecode, abstract (no code), a trapped
// function, an inert NOP, or a deferred native binder. unresolvedCode is
// a sixth, transient
// value ParseMethod installs before ResolveDispatch runs; no Method
// should still hold it once the owning class is resolved.
type codeVariant interface {
	variant() string
}

type unresolvedCode struct{}

func (unresolvedCode) variant() string { return "unresolved" }

type bytecodeCode struct {
	attr *classfile.CodeAttribute
}

func (bytecodeCode) variant() string { return "bytecode" }

type abstractCode struct{}

func (abstractCode) variant() string { return "abstract" }

type trappedCode struct {
	fn native.Func
}

func (trappedCode) variant() string { return "trapped" }

// nativeCode is the deferred binder of §4.4 step 2: unbound until first
// invocation, at which point it queries the registry once and memoizes
// the result. mu guards the bind, even though this core drives one
// logical thread at a time — the memoization must still be idempotent
// per §5's shared-resource policy.
type nativeCode struct {
	owner    string
	fullSig  string
	nameDesc string
	reg      *native.Registry

	mu    sync.Mutex
	bound native.Func
}

func (*nativeCode) variant() string { return "native" }

func (n *nativeCode) resolve() (native.Func, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.bound != nil {
		return n.bound, nil
	}
	fn, ok := n.reg.Lookup(n.owner, n.nameDesc)
	if !ok {
		dispatchLog.Warningf("unresolved native method %s", n.fullSig)
		return nil, NewJavaException("java/lang/UnsatisfiedLinkError", n.fullSig)
	}
	n.bound = fn
	return fn, nil
}

// registerNativesOrInitIDs reports whether a full signature is one of
// the two universally-safe native no-ops (§4.4 step 2, S6).
func registerNativesOrInitIDs(name, descriptor string) bool {
	return (name == "registerNatives" && descriptor == "()V") ||
		(name == "initIDs" && descriptor == "()V")
}

// ResolveDispatch runs the cascade of §4.4 exactly once, at parse time,
// installing one of the code variants above. reg is the external native
// registry consulted by the deferred binder; it may be nil for methods
// that cannot reach step 2 (trapped or abstract), but callers should
// always pass the runtime's registry.
func ResolveDispatch(m *Method, reg *native.Registry) {
	owner := m.owner.InternalName()
	nameDesc := m.Name + m.RawDescriptor

	if fn, ok := native.LookupTrap(owner, nameDesc); ok {
		m.AccessFlags = m.AccessFlags.SetNative()
		m.code = trappedCode{fn: fn}
		return
	}

	if m.AccessFlags.IsNative() {
		if registerNativesOrInitIDs(m.Name, m.RawDescriptor) {
			m.code = nopCode{}
			return
		}
		m.code = &nativeCode{
			owner:    owner,
			fullSig:  m.FullSignature(),
			nameDesc: nameDesc,
			reg:      reg,
		}
		return
	}

	if m.AccessFlags.IsAbstract() {
		m.code = abstractCode{}
		return
	}

	code, _ := m.GetAttribute("Code").(*classfile.CodeAttribute)
	m.code = bytecodeCode{attr: code}
}

type nopCode struct{}

func (nopCode) variant() string { return "nop" }

// GetCodeAttribute returns this method's bytecode, failing loudly if the
// method isn't a bytecode method — a resolver/interpreter disagreement
// otherwise silently runs the wrong thing.
func (m *Method) GetCodeAttribute() (*classfile.CodeAttribute, error) {
	bc, ok := m.code.(bytecodeCode)
	if !ok {
		return nil, errors.Errorf("%s: not a bytecode method (variant=%s)", m.FullSignature(), m.code.variant())
	}
	return bc.attr, nil
}

// GetNativeFunction returns the Func to invoke for a trapped, deferred,
// or NOP method. It fails for bytecode and abstract methods.
//
// For a deferred binder, the registry lookup itself happens "on first
// invocation" per §4.4 step 2, not here: the returned Func resolves (and
// memoizes) the binder when it's actually called, so an unresolved
// native reaches the caller as an UnsatisfiedLinkError thrown through
// the call, the same way a trapped or bytecode failure would, rather
// than as an error out of this accessor.
func (m *Method) GetNativeFunction() (native.Func, error) {
	switch c := m.code.(type) {
	case trappedCode:
		return c.fn, nil
	case nopCode:
		return func(args []interface{}) (interface{}, error) { return nil, nil }, nil
	case *nativeCode:
		return func(args []interface{}) (interface{}, error) {
			fn, err := c.resolve()
			if err != nil {
				return nil, err
			}
			return fn(args)
		}, nil
	default:
		return nil, errors.Errorf("%s: not a native method (variant=%s)", m.FullSignature(), m.code.variant())
	}
}

// IsAbstract reports whether this method's code variant is abstractCode.
func (m *Method) IsAbstract() bool {
	_, ok := m.code.(abstractCode)
	return ok
}

// MethodLock returns the monitor a synchronized invocation of m must
// acquire (§4.4): the class mirror's monitor for a static method, or the
// receiver's monitor (the first entry of args, which is always present
// for an instance method) otherwise.
func MethodLock(m *Method, classMirror sync.Locker, receiver interface{}) sync.Locker {
	if m.AccessFlags.IsStatic() {
		return classMirror
	}
	if locker, ok := receiver.(sync.Locker); ok {
		return locker
	}
	return &sync.Mutex{}
}
