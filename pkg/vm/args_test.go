package vm

import (
	"reflect"
	"testing"

	"github.com/gojvm-core/gojvm/pkg/classfile"
)

func TestTakeArgsPopsExactlyParamBytes(t *testing.T) {
	m, err := ParseMethod(fakeOwner("Demo"), &classfile.MethodInfo{
		Name:       "store",
		Descriptor: "(IJLjava/lang/String;)V",
	})
	if err != nil {
		t.Fatalf("ParseMethod: %v", err)
	}
	// receiver(1) + I(1) + J(2) + ref(1) = 5
	if m.ParamBytes != 5 {
		t.Fatalf("ParamBytes: got %d, want 5", m.ParamBytes)
	}

	frame := NewFrame(10, 10, nil, nil)
	frame.Push(RefValue("receiver"))
	frame.Push(IntValue(7))
	frame.Push(LongValue(123))
	frame.Push(SecondSlotValue())
	frame.Push(RefValue("hi"))

	args := TakeArgs(m, frame)
	if len(args) != 5 {
		t.Fatalf("TakeArgs length: got %d, want 5", len(args))
	}
	if frame.SP != 0 {
		t.Errorf("expected the caller stack to be fully drained, SP=%d", frame.SP)
	}
	if args[0].Ref != "receiver" || args[1].Int != 7 || args[2].Long != 123 {
		t.Errorf("unexpected argument values: %+v", args)
	}
	if args[3].Type != TypeSecondSlot {
		t.Errorf("expected a second-slot sentinel at index 3, got %v", args[3].Type)
	}
	if args[4].Ref != "hi" {
		t.Errorf("expected trailing ref argument, got %+v", args[4])
	}
}

func TestConvertArgsCollapsesWideValues(t *testing.T) {
	m, err := ParseMethod(fakeOwner("Demo"), &classfile.MethodInfo{
		Name:       "store",
		Descriptor: "(IJLjava/lang/String;)V",
	})
	if err != nil {
		t.Fatalf("ParseMethod: %v", err)
	}

	raw := []Value{
		RefValue("receiver"),
		IntValue(7),
		LongValue(123),
		SecondSlotValue(),
		RefValue("hi"),
	}
	thread := "thread-token"
	got := ConvertArgs(m, thread, raw)
	want := []interface{}{thread, "receiver", int32(7), int64(123), "hi"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ConvertArgs:\n got  %#v\n want %#v", got, want)
	}
}

func TestConvertArgsStaticSkipsReceiver(t *testing.T) {
	m, err := ParseMethod(fakeOwner("Demo"), &classfile.MethodInfo{
		Name:        "add",
		Descriptor:  "(II)I",
		AccessFlags: classfile.AccStatic,
	})
	if err != nil {
		t.Fatalf("ParseMethod: %v", err)
	}
	raw := []Value{IntValue(1), IntValue(2)}
	got := ConvertArgs(m, "thread", raw)
	want := []interface{}{"thread", int32(1), int32(2)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ConvertArgs:\n got  %#v\n want %#v", got, want)
	}
}

func TestConvertArgsSignaturePolymorphicSkipsCollapsing(t *testing.T) {
	m, err := ParseMethod(fakeOwner("java/lang/invoke/MethodHandle"), &classfile.MethodInfo{
		Name:        "invoke",
		Descriptor:  "([Ljava/lang/Object;)Ljava/lang/Object;",
		AccessFlags: classfile.AccNative | classfile.AccVarargs,
	})
	if err != nil {
		t.Fatalf("ParseMethod: %v", err)
	}
	raw := []Value{RefValue("receiver"), RefValue([]interface{}{"a", "b"})}
	got := ConvertArgs(m, "thread", raw)
	want := []interface{}{"thread", "receiver", []interface{}{"a", "b"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ConvertArgs (signature polymorphic):\n got  %#v\n want %#v", got, want)
	}
}
