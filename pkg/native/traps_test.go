package native

import "testing"

type fakeContext struct {
	statics map[string]interface{}
	thrown  string
	message string
	copied  []byte
}

func (c *fakeContext) ThrowJavaException(class, message string) {
	c.thrown = class
	c.message = message
}

func (c *fakeContext) StaticField(class, field string) (interface{}, bool) {
	v, ok := c.statics[class+"#"+field]
	return v, ok
}

func (c *fakeContext) HeapCopyOut(srcAddr int64, dst ByteArray, dstPos, length int64) error {
	for i := int64(0); i < length; i++ {
		dst.SetByte(dstPos+i, byte(srcAddr+i))
	}
	return nil
}

type fakeFieldHolder struct {
	fields map[string]interface{}
}

func newFakeFieldHolder() *fakeFieldHolder {
	return &fakeFieldHolder{fields: make(map[string]interface{})}
}

func (h *fakeFieldHolder) GetField(name string) interface{}    { return h.fields[name] }
func (h *fakeFieldHolder) SetField(name string, v interface{}) { h.fields[name] = v }

type fakeByteArray struct {
	bytes []byte
}

func (a *fakeByteArray) SetByte(i int64, b byte) { a.bytes[i] = b }
func (a *fakeByteArray) Len() int64              { return int64(len(a.bytes)) }

func TestLookupTrapCoversEveryDocumentedEntry(t *testing.T) {
	entries := []struct{ owner, nameDesc string }{
		{"java/lang/ref/Reference", "<clinit>()V"},
		{"java/lang/Terminator", "setup()V"},
		{"java/lang/System", "loadLibrary(Ljava/lang/String;)V"},
		{"java/util/concurrent/atomic/AtomicInteger", "compareAndSet(II)Z"},
		{"java/nio/Bits", "byteOrder()Ljava/nio/ByteOrder;"},
		{"java/nio/Bits", "copyToByteArray(JLjava/lang/Object;JJ)V"},
		{"java/nio/charset/Charset$3", "run()Ljava/lang/Object;"},
	}
	for _, e := range entries {
		if _, ok := LookupTrap(e.owner, e.nameDesc); !ok {
			t.Errorf("expected a trap for %s#%s", e.owner, e.nameDesc)
		}
	}
	if _, ok := LookupTrap("java/lang/Object", "toString()Ljava/lang/String;"); ok {
		t.Error("did not expect a trap for an untrapped method")
	}
}

// TestCompareAndSetAlwaysWrites exercises testable property S4: calling
// compareAndSet(expect=7, update=9) on a value of 0 still writes 9 and
// returns true.
func TestCompareAndSetAlwaysWrites(t *testing.T) {
	fn, ok := LookupTrap("java/util/concurrent/atomic/AtomicInteger", "compareAndSet(II)Z")
	if !ok {
		t.Fatal("compareAndSet trap not registered")
	}
	ctx := &fakeContext{}
	receiver := newFakeFieldHolder()
	receiver.SetField("value", int32(0))

	result, err := fn([]interface{}{ctx, receiver, int32(7), int32(9)})
	if err != nil {
		t.Fatalf("compareAndSet: %v", err)
	}
	if result != true {
		t.Errorf("compareAndSet result: got %v, want true", result)
	}
	if receiver.GetField("value") != int32(9) {
		t.Errorf("value after compareAndSet: got %v, want 9", receiver.GetField("value"))
	}
}

func TestLoadLibraryAllowlisted(t *testing.T) {
	fn, ok := LookupTrap("java/lang/System", "loadLibrary(Ljava/lang/String;)V")
	if !ok {
		t.Fatal("loadLibrary trap not registered")
	}
	ctx := &fakeContext{}
	if _, err := fn([]interface{}{ctx, "zip"}); err != nil {
		t.Fatalf("loadLibrary(zip): %v", err)
	}
	if ctx.thrown != "" {
		t.Errorf("allowlisted library must not throw, got %q", ctx.thrown)
	}
}

func TestLoadLibraryRejectsUnknown(t *testing.T) {
	fn, ok := LookupTrap("java/lang/System", "loadLibrary(Ljava/lang/String;)V")
	if !ok {
		t.Fatal("loadLibrary trap not registered")
	}
	ctx := &fakeContext{}
	if _, err := fn([]interface{}{ctx, "awesomesauce"}); err != nil {
		t.Fatalf("loadLibrary: %v", err)
	}
	if ctx.thrown != "java/lang/UnsatisfiedLinkError" {
		t.Errorf("expected UnsatisfiedLinkError, got %q", ctx.thrown)
	}
}

func TestByteOrderReadsStaticLittleEndian(t *testing.T) {
	fn, ok := LookupTrap("java/nio/Bits", "byteOrder()Ljava/nio/ByteOrder;")
	if !ok {
		t.Fatal("byteOrder trap not registered")
	}
	sentinel := &fakeFieldHolder{}
	ctx := &fakeContext{statics: map[string]interface{}{
		"java/nio/ByteOrder#LITTLE_ENDIAN": sentinel,
	}}
	v, err := fn([]interface{}{ctx})
	if err != nil {
		t.Fatalf("byteOrder: %v", err)
	}
	if v != sentinel {
		t.Errorf("byteOrder: got %v, want the LITTLE_ENDIAN static", v)
	}
}

func TestCopyToByteArray(t *testing.T) {
	fn, ok := LookupTrap("java/nio/Bits", "copyToByteArray(JLjava/lang/Object;JJ)V")
	if !ok {
		t.Fatal("copyToByteArray trap not registered")
	}
	ctx := &fakeContext{}
	dst := &fakeByteArray{bytes: make([]byte, 4)}
	if _, err := fn([]interface{}{ctx, int64(10), dst, int64(1), int64(3)}); err != nil {
		t.Fatalf("copyToByteArray: %v", err)
	}
	want := []byte{0, 10, 11, 12}
	for i, b := range want {
		if dst.bytes[i] != b {
			t.Errorf("dst[%d]: got %d, want %d", i, dst.bytes[i], b)
		}
	}
}
