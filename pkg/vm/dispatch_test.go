package vm

import (
	"testing"

	"github.com/gojvm-core/gojvm/pkg/classfile"
	"github.com/gojvm-core/gojvm/pkg/native"
)

func TestResolveDispatchTrapWins(t *testing.T) {
	m, err := ParseMethod(fakeOwner("java/util/concurrent/atomic/AtomicInteger"), &classfile.MethodInfo{
		Name:       "compareAndSet",
		Descriptor: "(II)Z",
	})
	if err != nil {
		t.Fatalf("ParseMethod: %v", err)
	}
	ResolveDispatch(m, native.NewRegistry())

	if !m.AccessFlags.IsNative() {
		t.Error("a trapped method must be forced native even if the class file didn't declare it so")
	}
	fn, err := m.GetNativeFunction()
	if err != nil {
		t.Fatalf("GetNativeFunction: %v", err)
	}
	if fn == nil {
		t.Fatal("expected a non-nil trapped function")
	}
}

func TestResolveDispatchRegisterNativesIsNop(t *testing.T) {
	m, err := ParseMethod(fakeOwner("Demo"), &classfile.MethodInfo{
		Name:        "registerNatives",
		Descriptor:  "()V",
		AccessFlags: classfile.AccNative | classfile.AccStatic,
	})
	if err != nil {
		t.Fatalf("ParseMethod: %v", err)
	}
	ResolveDispatch(m, native.NewRegistry())

	fn, err := m.GetNativeFunction()
	if err != nil {
		t.Fatalf("GetNativeFunction: %v", err)
	}
	if v, err := fn(nil); v != nil || err != nil {
		t.Errorf("registerNatives nop: got (%v, %v), want (nil, nil)", v, err)
	}
}

func TestResolveDispatchDeferredNativeBindsOnce(t *testing.T) {
	reg := native.NewRegistry()
	calls := 0
	reg.Register("Demo", "hash()I", func(args []interface{}) (interface{}, error) {
		calls++
		return int32(42), nil
	})

	m, err := ParseMethod(fakeOwner("Demo"), &classfile.MethodInfo{
		Name:        "hash",
		Descriptor:  "()I",
		AccessFlags: classfile.AccNative,
	})
	if err != nil {
		t.Fatalf("ParseMethod: %v", err)
	}
	ResolveDispatch(m, reg)

	for i := 0; i < 3; i++ {
		fn, err := m.GetNativeFunction()
		if err != nil {
			t.Fatalf("GetNativeFunction call %d: %v", i, err)
		}
		v, err := fn(nil)
		if err != nil {
			t.Fatalf("invoking bound native: %v", err)
		}
		if v.(int32) != 42 {
			t.Errorf("call %d: got %v, want 42", i, v)
		}
	}
	if calls != 3 {
		t.Errorf("expected the bound native to run once per invocation, got %d runs", calls)
	}
	if nc, ok := m.code.(*nativeCode); !ok || nc.bound == nil {
		t.Error("expected the deferred binder to have memoized its registry lookup")
	}
}

func TestResolveDispatchUnregisteredNativeFails(t *testing.T) {
	m, err := ParseMethod(fakeOwner("Demo"), &classfile.MethodInfo{
		Name:        "mystery",
		Descriptor:  "()V",
		AccessFlags: classfile.AccNative,
	})
	if err != nil {
		t.Fatalf("ParseMethod: %v", err)
	}
	ResolveDispatch(m, native.NewRegistry())

	fn, err := m.GetNativeFunction()
	if err != nil {
		t.Fatalf("GetNativeFunction: %v", err)
	}
	_, err = fn(nil)
	if err == nil {
		t.Fatal("expected UnsatisfiedLinkError from an unregistered deferred native")
	}
	exc, ok := err.(*JavaException)
	if !ok {
		t.Fatalf("expected a *JavaException, got %T (%v)", err, err)
	}
	if exc.Object.ClassName != "java/lang/UnsatisfiedLinkError" {
		t.Errorf("ClassName: got %q, want java/lang/UnsatisfiedLinkError", exc.Object.ClassName)
	}
}

func TestResolveDispatchAbstract(t *testing.T) {
	m, err := ParseMethod(fakeOwner("Demo"), &classfile.MethodInfo{
		Name:        "run",
		Descriptor:  "()V",
		AccessFlags: classfile.AccAbstract,
	})
	if err != nil {
		t.Fatalf("ParseMethod: %v", err)
	}
	ResolveDispatch(m, native.NewRegistry())

	if !m.IsAbstract() {
		t.Error("expected IsAbstract to be true")
	}
	if _, err := m.GetCodeAttribute(); err == nil {
		t.Error("expected GetCodeAttribute to fail for an abstract method")
	}
	if _, err := m.GetNativeFunction(); err == nil {
		t.Error("expected GetNativeFunction to fail for an abstract method")
	}
}

func TestResolveDispatchBytecode(t *testing.T) {
	code := &classfile.CodeAttribute{MaxStack: 1, MaxLocals: 1, Code: []byte{0xB1}}
	m, err := ParseMethod(fakeOwner("Demo"), &classfile.MethodInfo{
		Name:       "run",
		Descriptor: "()V",
		Code:       code,
		Attributes: []classfile.Attribute{code},
	})
	if err != nil {
		t.Fatalf("ParseMethod: %v", err)
	}
	ResolveDispatch(m, native.NewRegistry())

	got, err := m.GetCodeAttribute()
	if err != nil {
		t.Fatalf("GetCodeAttribute: %v", err)
	}
	if got != code {
		t.Error("expected the resolved code attribute to be the parsed one")
	}
}

func TestMethodLockStaticUsesClassMirror(t *testing.T) {
	m, err := ParseMethod(fakeOwner("Demo"), &classfile.MethodInfo{
		Name:        "run",
		Descriptor:  "()V",
		AccessFlags: classfile.AccStatic,
	})
	if err != nil {
		t.Fatalf("ParseMethod: %v", err)
	}
	classMirror := &fakeLocker{}
	if got := MethodLock(m, classMirror, nil); got != classMirror {
		t.Error("expected a static method's lock to be the class mirror")
	}
}

func TestMethodLockInstanceUsesReceiver(t *testing.T) {
	m, err := ParseMethod(fakeOwner("Demo"), &classfile.MethodInfo{
		Name:       "run",
		Descriptor: "()V",
	})
	if err != nil {
		t.Fatalf("ParseMethod: %v", err)
	}
	obj := NewJObject("Demo")
	if got := MethodLock(m, &fakeLocker{}, obj); got != obj {
		t.Error("expected an instance method's lock to be the receiver's monitor")
	}
}

type fakeLocker struct{}

func (*fakeLocker) Lock()   {}
func (*fakeLocker) Unlock() {}
