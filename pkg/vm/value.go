package vm

import (
	"sync"

	"github.com/gojvm-core/gojvm/pkg/native"
)

// ValueType tags what a Value on the operand stack or in a local variable
// slot currently holds.
type ValueType int

const (
	TypeInt ValueType = iota
	TypeLong
	TypeFloat
	TypeDouble
	TypeRef
	TypeNull
	// TypeSecondSlot marks the sentinel occupying the second slot of a
	// long or double. convertArgs (§4.6) knows to skip exactly one of
	// these per wide parameter.
	TypeSecondSlot
)

// Value is one operand-stack or local-variable slot. Longs and doubles
// are stored whole in a single Value. In the raw argument vectors that
// TakeArgs, ConvertArgs and InvokeMethod take, a wide value is followed
// by a TypeSecondSlot sentinel so that slot-counting code never has to
// special-case width; the interpreter's operand stack holds one Value
// per long or double.
type Value struct {
	Type   ValueType
	Int    int32
	Long   int64
	Float  float32
	Double float64
	Ref    interface{}
}

func IntValue(v int32) Value       { return Value{Type: TypeInt, Int: v} }
func LongValue(v int64) Value      { return Value{Type: TypeLong, Long: v} }
func FloatValue(v float32) Value   { return Value{Type: TypeFloat, Float: v} }
func DoubleValue(v float64) Value  { return Value{Type: TypeDouble, Double: v} }
func RefValue(ref interface{}) Value {
	return Value{Type: TypeRef, Ref: ref}
}
func NullValue() Value          { return Value{Type: TypeNull} }
func SecondSlotValue() Value    { return Value{Type: TypeSecondSlot} }

// IsWide reports whether v occupies two stack/local slots.
func (v Value) IsWide() bool { return v.Type == TypeLong || v.Type == TypeDouble }

// Raw returns v collapsed to the single native-call argument convertArgs
// hands to a trapped or native Func: the Go-native value the interpreter
// would otherwise have spread across one or two slots.
func (v Value) Raw() interface{} {
	switch v.Type {
	case TypeInt:
		return v.Int
	case TypeLong:
		return v.Long
	case TypeFloat:
		return v.Float
	case TypeDouble:
		return v.Double
	case TypeRef:
		return v.Ref
	case TypeNull:
		return nil
	default:
		return nil
	}
}

// JObject is a JVM object instance: its class name and a mutable field
// table. It satisfies native.FieldHolder so trap bodies (AtomicInteger's
// compareAndSet) can read and write instance fields without this package
// exposing a concrete type to pkg/native. It also satisfies sync.Locker,
// standing in for the object's monitor (§4.4's per-method lock).
type JObject struct {
	ClassName string
	Fields    map[string]Value
	mu        sync.Mutex
}

// NewJObject allocates a zero-valued instance of className.
func NewJObject(className string) *JObject {
	return &JObject{ClassName: className, Fields: make(map[string]Value)}
}

func (o *JObject) Lock()   { o.mu.Lock() }
func (o *JObject) Unlock() { o.mu.Unlock() }

func (o *JObject) GetField(name string) interface{} {
	return o.Fields[name].Raw()
}

func (o *JObject) SetField(name string, v interface{}) {
	o.Fields[name] = rawToValue(v)
}

func rawToValue(v interface{}) Value {
	switch x := v.(type) {
	case int32:
		return IntValue(x)
	case int64:
		return LongValue(x)
	case float32:
		return FloatValue(x)
	case float64:
		return DoubleValue(x)
	case bool:
		if x {
			return IntValue(1)
		}
		return IntValue(0)
	case nil:
		return NullValue()
	default:
		return RefValue(v)
	}
}

// JArray is a JVM array of Values: anewarray builds reference arrays and
// newarray builds primitive arrays with this type.
type JArray struct {
	ElementType string
	Elements    []Value
}

// JByteArray is a JVM byte[], kept distinct from JArray because the heap
// trap Bits.copyToByteArray (§6) needs raw byte-level access rather than
// boxed Values.
type JByteArray struct {
	Bytes []byte
}

func (a *JByteArray) SetByte(i int64, b byte) { a.Bytes[i] = b }
func (a *JByteArray) Len() int64              { return int64(len(a.Bytes)) }

var _ native.FieldHolder = (*JObject)(nil)
var _ native.ByteArray = (*JByteArray)(nil)
