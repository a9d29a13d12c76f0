package native

// NativeInteger is the core's representation of a boxed java.lang.Integer.
type NativeInteger struct {
	Value int32
}

// IntegerValueOf boxes an int32.
func IntegerValueOf(v int32) *NativeInteger {
	return &NativeInteger{Value: v}
}

// IntegerIntValue unboxes a NativeInteger.
func IntegerIntValue(ni *NativeInteger) int32 {
	return ni.Value
}

func registerInteger(reg *Registry) {
	reg.Register("java/lang/Integer", "valueOf(I)Ljava/lang/Integer;", func(args []interface{}) (interface{}, error) {
		return IntegerValueOf(args[1].(int32)), nil
	})
	reg.Register("java/lang/Integer", "intValue()I", func(args []interface{}) (interface{}, error) {
		return IntegerIntValue(args[1].(*NativeInteger)), nil
	})
}
