package vm

import "github.com/gojvm-core/gojvm/pkg/classfile"

// OperandStack is the narrow slice-backed stack interface TakeArgs pops
// from. *Frame implements it.
type OperandStack interface {
	PopN(n int) []Value
}

// PopN removes and returns the top n values of f's operand stack, in the
// order they were pushed (bottom of the popped range first).
func (f *Frame) PopN(n int) []Value {
	out := make([]Value, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = f.Pop()
	}
	return out
}

// TakeArgs implements §4.6: pop exactly m.ParamBytes slots from the tail
// of the caller's operand stack and return them as a new ordered
// sequence, truncating the caller stack in place (PopN already does the
// truncation via Frame's SP).
func TakeArgs(m *Method, callerStack OperandStack) []Value {
	return callerStack.PopN(m.ParamBytes)
}

// ConvertArgs implements §4.6: collapse the raw, two-slot-wide stack
// representation into the one-value-per-parameter vector a native or
// trapped Func expects, with the calling thread prepended.
//
// Signature-polymorphic methods (§4.4) skip this collapsing entirely —
// MethodHandle's native varargs methods are handed the raw stack values
// verbatim after the thread.
func ConvertArgs(m *Method, thread interface{}, rawParams []Value) []interface{} {
	if m.IsSignaturePolymorphic() {
		out := make([]interface{}, 0, len(rawParams)+1)
		out = append(out, thread)
		for _, v := range rawParams {
			out = append(out, v.Raw())
		}
		return out
	}

	out := make([]interface{}, 0, m.NumArgs+1)
	out = append(out, thread)

	i := 0
	if !m.AccessFlags.IsStatic() {
		out = append(out, rawParams[0].Raw())
		i++
	}
	for _, pt := range m.ParamTypes {
		out = append(out, rawParams[i].Raw())
		if classfile.IsWideType(pt) {
			i += 2
		} else {
			i++
		}
	}
	return out
}
