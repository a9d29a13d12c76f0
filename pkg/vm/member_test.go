package vm

import (
	"testing"

	"github.com/gojvm-core/gojvm/pkg/classfile"
)

type fakeOwner string

func (f fakeOwner) InternalName() string { return string(f) }

func TestParseFieldDecodesType(t *testing.T) {
	f, err := ParseField(fakeOwner("Demo"), &classfile.FieldInfo{
		Name:       "count",
		Descriptor: "I",
	})
	if err != nil {
		t.Fatalf("ParseField: %v", err)
	}
	if f.Type != "I" {
		t.Errorf("Type: got %q, want I", f.Type)
	}
	if f.Slot() != -1 {
		t.Errorf("Slot before assignment: got %d, want -1", f.Slot())
	}
	f.SetSlot(3)
	if f.Slot() != 3 {
		t.Errorf("Slot after assignment: got %d, want 3", f.Slot())
	}
}

func TestParseFieldRejectsBadDescriptor(t *testing.T) {
	if _, err := ParseField(fakeOwner("Demo"), &classfile.FieldInfo{Name: "bad", Descriptor: "Q"}); err == nil {
		t.Error("expected error for malformed descriptor, got nil")
	}
}

func TestParseMethodStaticWordSizing(t *testing.T) {
	m, err := ParseMethod(fakeOwner("Demo"), &classfile.MethodInfo{
		Name:        "add",
		Descriptor:  "(II)I",
		AccessFlags: classfile.AccStatic,
	})
	if err != nil {
		t.Fatalf("ParseMethod: %v", err)
	}
	if m.ParamBytes != 2 {
		t.Errorf("ParamBytes: got %d, want 2", m.ParamBytes)
	}
	if m.NumArgs != 2 {
		t.Errorf("NumArgs: got %d, want 2", m.NumArgs)
	}
	if m.NumberOfParameters() != 2 {
		t.Errorf("NumberOfParameters: got %d, want 2", m.NumberOfParameters())
	}
}

func TestParseMethodInstanceWithWideParam(t *testing.T) {
	m, err := ParseMethod(fakeOwner("Demo"), &classfile.MethodInfo{
		Name:       "store",
		Descriptor: "(JI)V",
	})
	if err != nil {
		t.Fatalf("ParseMethod: %v", err)
	}
	// receiver(1) + J(2) + I(1) = 4
	if m.ParamBytes != 4 {
		t.Errorf("ParamBytes: got %d, want 4", m.ParamBytes)
	}
	// receiver + J + I = 3
	if m.NumArgs != 3 {
		t.Errorf("NumArgs: got %d, want 3", m.NumArgs)
	}
	if m.ParamWordSize() != m.ParamBytes {
		t.Errorf("ParamWordSize should mirror ParamBytes")
	}
}

func TestIsSignaturePolymorphic(t *testing.T) {
	m, err := ParseMethod(fakeOwner("java/lang/invoke/MethodHandle"), &classfile.MethodInfo{
		Name:        "invoke",
		Descriptor:  "([Ljava/lang/Object;)Ljava/lang/Object;",
		AccessFlags: classfile.AccNative | classfile.AccVarargs,
	})
	if err != nil {
		t.Fatalf("ParseMethod: %v", err)
	}
	if !m.IsSignaturePolymorphic() {
		t.Error("expected MethodHandle.invoke to be signature polymorphic")
	}

	other, err := ParseMethod(fakeOwner("java/lang/invoke/MethodHandle"), &classfile.MethodInfo{
		Name:        "invoke",
		Descriptor:  "(Ljava/lang/Object;)Ljava/lang/Object;",
		AccessFlags: classfile.AccNative | classfile.AccVarargs,
	})
	if err != nil {
		t.Fatalf("ParseMethod: %v", err)
	}
	if other.IsSignaturePolymorphic() {
		t.Error("a differing descriptor must not be treated as signature polymorphic")
	}
}

func TestFullSignature(t *testing.T) {
	m, err := ParseMethod(fakeOwner("java/lang/Integer"), &classfile.MethodInfo{
		Name:       "valueOf",
		Descriptor: "(I)Ljava/lang/Integer;",
	})
	if err != nil {
		t.Fatalf("ParseMethod: %v", err)
	}
	want := "java/lang/Integer::valueOf(I)Ljava/lang/Integer;"
	if got := m.FullSignature(); got != want {
		t.Errorf("FullSignature: got %q, want %q", got, want)
	}
}

func TestSetSlotTwiceViolatesContract(t *testing.T) {
	f, err := ParseField(fakeOwner("Demo"), &classfile.FieldInfo{Name: "x", Descriptor: "I"})
	if err != nil {
		t.Fatalf("ParseField: %v", err)
	}
	f.SetSlot(0)
	defer func() {
		if recover() == nil {
			t.Error("expected panic on second SetSlot call")
		}
	}()
	f.SetSlot(1)
}
