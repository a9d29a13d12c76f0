package native

// NativeHashMap is the core's representation of a java.util.HashMap.
// Boxed integer keys are unwrapped to their int32 value so that two
// distinct *NativeInteger boxes with the same value collide, matching
// Integer.equals/hashCode.
type NativeHashMap struct {
	Data map[interface{}]interface{}
}

// NewNativeHashMap creates an empty NativeHashMap.
func NewNativeHashMap() *NativeHashMap {
	return &NativeHashMap{Data: make(map[interface{}]interface{})}
}

func mapKey(key interface{}) interface{} {
	if ni, ok := key.(*NativeInteger); ok {
		return ni.Value
	}
	return key
}

// Get returns the value stored for key, or nil.
func (m *NativeHashMap) Get(key interface{}) interface{} {
	return m.Data[mapKey(key)]
}

// Put stores value under key and returns the previous value, or nil.
func (m *NativeHashMap) Put(key, value interface{}) interface{} {
	k := mapKey(key)
	old := m.Data[k]
	m.Data[k] = value
	return old
}

func registerHashMap(reg *Registry) {
	reg.Register("java/util/HashMap", "get(Ljava/lang/Object;)Ljava/lang/Object;", func(args []interface{}) (interface{}, error) {
		hm := args[1].(*NativeHashMap)
		return hm.Get(args[2]), nil
	})
	reg.Register("java/util/HashMap", "put(Ljava/lang/Object;Ljava/lang/Object;)Ljava/lang/Object;", func(args []interface{}) (interface{}, error) {
		hm := args[1].(*NativeHashMap)
		return hm.Put(args[2], args[3]), nil
	})
}
