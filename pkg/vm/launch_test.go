package vm

import "testing"

func TestLaunchFailsFastWhenCoreClassesUnavailable(t *testing.T) {
	rt := NewRuntime(&Classpath{})
	thread := NewThread("main", rt)

	err := Launch(rt, thread, "Main", nil)
	if err == nil {
		t.Fatal("expected Launch to fail when no classpath entry can resolve java/lang/Object")
	}
	if _, ok := err.(*ClassNotFoundError); !ok {
		t.Errorf("expected *ClassNotFoundError, got %T (%v)", err, err)
	}
}

func TestSyncStepPropagatesFailure(t *testing.T) {
	err := syncStep(func(ok func(), fail func(error)) {
		fail(&ClassNotFoundError{InternalName: "LFoo;"})
	})
	if err == nil {
		t.Fatal("expected syncStep to propagate the failure")
	}
}

func TestSyncStepPropagatesSuccess(t *testing.T) {
	err := syncStep(func(ok func(), fail func(error)) {
		ok()
	})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}
