package vm

import (
	"github.com/pkg/errors"

	"github.com/gojvm-core/gojvm/pkg/classfile"
)

// InvokeMethod implements §4.6's invocation boundary: run m to
// completion and return its result as a single Value, dispatching on
// the code variant dispatch.go already resolved. rawArgs is in the
// two-slot-with-sentinel convention TakeArgs/ConvertArgs use — a wide
// argument is one real Value followed by a SecondSlotValue().
//
// A pending exception left on thread by a native or trapped call is
// promoted to a returned error exactly like a bytecode athrow would be,
// so callers never have to check both channels.
func (rt *Runtime) InvokeMethod(thread *Thread, m *Method, rawArgs []Value) (Value, error) {
	if m.IsAbstract() {
		return Value{}, errors.Errorf("%s: abstract method has no code", m.FullSignature())
	}

	if m.AccessFlags.IsSynchronized() {
		var receiver interface{}
		if !m.AccessFlags.IsStatic() && len(rawArgs) > 0 {
			receiver = rawArgs[0].Ref
		}
		lock := MethodLock(m, m.Owner().(*Class), receiver)
		lock.Lock()
		defer lock.Unlock()
	}

	if attr, err := m.GetCodeAttribute(); err == nil {
		return rt.runBytecode(thread, m, attr, rawArgs)
	}

	fn, err := m.GetNativeFunction()
	if err != nil {
		return Value{}, err
	}
	callArgs := ConvertArgs(m, thread, rawArgs)
	result, err := fn(callArgs)
	if err != nil {
		return Value{}, err
	}
	if exc := thread.TakePendingException(); exc != nil {
		return Value{}, exc
	}
	if m.ReturnType == "V" {
		return Value{}, nil
	}
	return rawToValue(result), nil
}

// populateLocals lays rawArgs out into a fresh local variable array at
// the physical slot indices the class file's bytecode expects: a wide
// value occupies its low index only (nothing reads the paired high
// index in this interpreter), matching every other Frame convention in
// this package.
func populateLocals(m *Method, rawArgs []Value, maxLocals uint16) []Value {
	locals := make([]Value, maxLocals)
	idx, i := 0, 0
	if !m.AccessFlags.IsStatic() {
		if i < len(rawArgs) {
			locals[idx] = rawArgs[i]
		}
		idx++
		i++
	}
	for _, pt := range m.ParamTypes {
		if i < len(rawArgs) {
			locals[idx] = rawArgs[i]
		}
		if classfile.IsWideType(pt) {
			idx += 2
			i += 2
		} else {
			idx++
			i++
		}
	}
	return locals
}

// popArgsForInvoke bridges this interpreter's single-slot operand stack
// (one Value per conceptual push, regardless of width) to the
// two-slot-with-sentinel raw form TakeArgs/ConvertArgs expect: it pops
// exactly m.NumArgs values — one per parameter plus the receiver — and
// re-expands each wide one with a trailing SecondSlotValue().
func popArgsForInvoke(m *Method, frame *Frame) []Value {
	vals := frame.PopN(m.NumArgs)
	raw := make([]Value, 0, m.ParamBytes)
	i := 0
	if !m.AccessFlags.IsStatic() {
		raw = append(raw, vals[i])
		i++
	}
	for _, pt := range m.ParamTypes {
		raw = append(raw, vals[i])
		i++
		if classfile.IsWideType(pt) {
			raw = append(raw, SecondSlotValue())
		}
	}
	return raw
}

// runBytecode drives the fetch-decode-execute loop for one bytecode
// method invocation, unwinding into attr's exception table on a Java
// exception and propagating anything else (a malformed class file, an
// interpreter-internal error) straight to the caller.
func (rt *Runtime) runBytecode(thread *Thread, m *Method, attr *classfile.CodeAttribute, rawArgs []Value) (Value, error) {
	class, _ := m.Owner().(*Class)
	frame := NewFrame(attr.MaxLocals, attr.MaxStack, attr.Code, class)
	frame.LocalVars = populateLocals(m, rawArgs, attr.MaxLocals)

	thread.frameDepth++
	defer func() { thread.frameDepth-- }()

	for frame.PC < len(frame.Code) {
		startPC := frame.PC
		opcode := frame.ReadU8()
		val, hasReturn, err := rt.executeInstruction(thread, frame, opcode)
		if err != nil {
			exc, isJava := err.(*JavaException)
			if !isJava {
				return Value{}, err
			}
			handlerPC, handled := rt.findExceptionHandler(attr, startPC, exc)
			if !handled {
				return Value{}, exc
			}
			frame.SP = 0
			frame.Push(RefValue(exc.Object))
			frame.PC = handlerPC
			continue
		}
		if hasReturn {
			return val, nil
		}
	}
	return Value{}, nil
}

// findExceptionHandler scans attr's exception table (§4's unwind
// mechanism) for the first entry covering pc whose catch type matches
// exc's actual class, an empty CatchType meaning catch-all (a compiled
// finally block).
func (rt *Runtime) findExceptionHandler(attr *classfile.CodeAttribute, pc int, exc *JavaException) (int, bool) {
	for _, h := range attr.ExceptionHandlers {
		if pc < int(h.StartPC) || pc >= int(h.EndPC) {
			continue
		}
		if h.CatchType == "" || rt.isInstanceOf(exc.Object.ClassName, h.CatchType) {
			return int(h.HandlerPC), true
		}
	}
	return 0, false
}

// isInstanceOf walks className's superclass chain looking for target,
// consulting only classes already in the class table — this interpreter
// doesn't trigger a fresh resolve mid-instanceof/checkcast, matching
// real JVM behavior that a loaded object's ancestry is always already
// loaded.
func (rt *Runtime) isInstanceOf(className, target string) bool {
	for className != "" {
		if className == target {
			return true
		}
		c, ok := rt.lookupClass(className)
		if !ok {
			return className == target
		}
		className = c.SuperName
	}
	return false
}

// ensureInitializedSync bridges the async initializeClass (§6) into the
// synchronous call shape the fetch-decode-execute loop needs: getstatic,
// putstatic and new all trigger initialization of their target class
// before touching it, and none of them can suspend mid-instruction.
func (rt *Runtime) ensureInitializedSync(thread *Thread, descriptor string) (*Class, error) {
	type outcome struct {
		c   *Class
		err error
	}
	done := make(chan outcome, 1)
	rt.InitializeClass(thread, descriptor, func(c *Class) {
		done <- outcome{c: c}
	}, func(err error) {
		done <- outcome{err: err}
	})
	o := <-done
	return o.c, o.err
}

// findVirtualMethod implements the dynamic half of invokevirtual and
// invokeinterface: start at the receiver's actual runtime class and walk
// up the superclass chain, returning nil if no class on the chain
// declares it (dispatchTarget then falls back to the statically named
// class).
func (rt *Runtime) findVirtualMethod(receiverClassName, name, descriptor string) *Method {
	className := receiverClassName
	for className != "" {
		c, ok := rt.lookupClass(className)
		if !ok {
			return nil
		}
		if m := c.FindMethod(name, descriptor); m != nil {
			return m
		}
		className = c.SuperName
	}
	return nil
}
