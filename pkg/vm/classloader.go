package vm

import (
	"strings"
	"sync"

	cmap "github.com/orcaman/concurrent-map"

	"github.com/gojvm-core/gojvm/pkg/native"
)

// coreClasses are the classes preinitializeCoreClasses (§4.7 step 1)
// brings up before any user code runs. This core doesn't ship a real
// Java Class Library, so the set is deliberately small — just enough
// structure for a launch to proceed once a classpath actually supplies
// these classes.
var coreClasses = []string{
	"Ljava/lang/Object;",
	"Ljava/lang/Class;",
	"Ljava/lang/String;",
	"Ljava/lang/System;",
	"Ljava/lang/Thread;",
	"Ljava/lang/ThreadGroup;",
}

// Runtime is the JVM context (§6's "getThreadPool().getJVM()") shared by
// every logical thread: the classpath, the native registry, the
// cooperative executor, the heap, and the class table. It is configured
// once at startup and is the thing Thread.RT points back to.
type Runtime struct {
	CP       *Classpath
	Registry *native.Registry
	Exec     *Executor
	Heap     *Heap

	classes cmap.ConcurrentMap

	mu       sync.Mutex
	interned map[string]string

	SystemInitialized bool
	CmdlineArgs       []string
	MainThreadGroup   *JObject
}

// NewRuntime wires together a freshly configured classpath into a
// ready-to-launch Runtime.
func NewRuntime(cp *Classpath) *Runtime {
	reg := native.NewRegistry()
	native.RegisterStdlib(reg)
	return &Runtime{
		CP:       cp,
		Registry: reg,
		Exec:     NewExecutor(),
		Heap:     NewHeap(),
		classes:  cmap.New(),
		interned: make(map[string]string),
	}
}

// InternString implements the JVM context's internString(s) (§6):
// repeated calls with equal strings return the identical Go string
// value, matching java.lang.String.intern's identity guarantee closely
// enough for this core's purposes (pointer identity on the underlying
// array isn't meaningful in Go, but callers only ever compare by value).
func (rt *Runtime) InternString(s string) string {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if interned, ok := rt.interned[s]; ok {
		return interned
	}
	rt.interned[s] = s
	return s
}

// GetInitializedClass implements §6's getInitializedClass: a
// synchronous fetch that only succeeds for a class already resolved and
// initialized. internalName is bare ("java/lang/Object"), not
// descriptor-wrapped.
func (rt *Runtime) GetInitializedClass(internalName string) (*Class, bool) {
	v, ok := rt.classes.Get(internalName)
	if !ok {
		return nil, false
	}
	c := v.(*Class)
	if !c.Initialized {
		return nil, false
	}
	return c, true
}

// lookupClass returns a class already in the table regardless of
// initialization state, used by virtual dispatch to walk a receiver's
// superclass chain without triggering a fresh resolve.
func (rt *Runtime) lookupClass(internalName string) (*Class, bool) {
	v, ok := rt.classes.Get(internalName)
	if !ok {
		return nil, false
	}
	return v.(*Class), true
}

func internalNameOf(descriptor string) string {
	return strings.TrimSuffix(strings.TrimPrefix(descriptor, "L"), ";")
}

// isReferenceDescriptor reports whether descriptor denotes a class type
// with an actual class file behind it, as opposed to a primitive or
// array type, which resolveClass models as a synthetic placeholder Class
// since there's nothing to parse.
func isReferenceDescriptor(descriptor string) bool {
	return len(descriptor) >= 2 && descriptor[0] == 'L' && strings.HasSuffix(descriptor, ";")
}

// ResolveClass implements §6's resolveClass(thread, descriptor, cb):
// asynchronously turn a type descriptor into a loaded (but not
// necessarily initialized) Class, loading and parsing it from the
// classpath on first request and caching it thereafter.
func (rt *Runtime) ResolveClass(thread *Thread, descriptor string, onResume func(*Class), onFail func(error)) {
	rt.Exec.AsyncOp(func() (interface{}, error) {
		return rt.loadClassSync(descriptor)
	}, func(v interface{}) {
		onResume(v.(*Class))
	}, onFail)
}

// ResolveClasses implements §6's batched resolveClasses(thread,
// descriptors, cb): resolve every descriptor, then deliver either a
// complete descriptor→Class mapping or — on the first failure anywhere
// in the batch — absent, matching §4.5's batched-join semantics (the
// materializer must not see partial results).
func (rt *Runtime) ResolveClasses(thread *Thread, descriptors []string, onResume func(map[string]*Class), onFail func(error)) {
	rt.Exec.AsyncOp(func() (interface{}, error) {
		result := make(map[string]*Class, len(descriptors))
		for _, d := range descriptors {
			c, err := rt.loadClassSync(d)
			if err != nil {
				return nil, err
			}
			result[d] = c
		}
		return result, nil
	}, func(v interface{}) {
		onResume(v.(map[string]*Class))
	}, onFail)
}

// loadClassSync does the actual work behind ResolveClass/ResolveClasses:
// cache lookup, else classpath read + parse + dispatch resolution for
// reference types, or a synthetic placeholder for primitives and arrays.
func (rt *Runtime) loadClassSync(descriptor string) (*Class, error) {
	if v, ok := rt.classes.Get(descriptor); ok {
		return v.(*Class), nil
	}

	if !isReferenceDescriptor(descriptor) {
		c := &Class{Name: descriptor}
		rt.classes.Set(descriptor, c)
		return c, nil
	}

	internalName := internalNameOf(descriptor)

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	rt.CP.ReadClass(descriptor, func(data []byte) {
		done <- result{data: data}
	}, func(err error) {
		done <- result{err: err}
	})
	r := <-done
	if r.err != nil {
		classloaderLog.Warningf("resolving %s: %v", descriptor, r.err)
		return nil, r.err
	}

	c, err := BuildClass(r.data, rt.Registry)
	if err != nil {
		return nil, err
	}

	rt.classes.Set(descriptor, c)
	rt.classes.Set(internalName, c)
	classloaderLog.Debugf("loaded %s", internalName)
	return c, nil
}

// InitializeClass implements §6's initializeClass(thread, descriptor,
// ok, fail): resolve the class, then run its <clinit> exactly once if
// present. Initialization is idempotent — a second call on an
// already-initialized class succeeds immediately without re-running
// <clinit>.
func (rt *Runtime) InitializeClass(thread *Thread, descriptor string, ok func(*Class), fail func(error)) {
	rt.ResolveClass(thread, descriptor, func(c *Class) {
		c.Lock()
		already := c.Initialized
		c.Initialized = true
		c.Unlock()
		if already {
			ok(c)
			return
		}
		if m := c.FindMethod("<clinit>", "()V"); m != nil {
			if _, err := rt.InvokeMethod(thread, m, nil); err != nil {
				fail(err)
				return
			}
		}
		ok(c)
	}, fail)
}

// PreinitializeCoreClasses implements §4.7 step 1: bring up coreClasses
// in one batched resolve-and-initialize pass. A failure here is
// bootstrap-fatal (§7): the caller terminates the process rather than
// surfacing a Java exception.
func (rt *Runtime) PreinitializeCoreClasses(thread *Thread, ok func(), fail func(error)) {
	remaining := len(coreClasses)
	if remaining == 0 {
		ok()
		return
	}
	var once sync.Once
	for _, d := range coreClasses {
		d := d
		rt.InitializeClass(thread, d, func(*Class) {
			remaining--
			if remaining == 0 {
				once.Do(ok)
			}
		}, func(err error) {
			once.Do(func() { fail(err) })
		})
	}
}

// InitThreads implements §4.7 step 2: set up the main thread group
// object current bytecode inspects via Thread.currentThread(). Minimal
// by design — this core multiplexes every logical JVM thread onto one
// cooperative executor (§5), so there is no real thread table to build.
func (rt *Runtime) InitThreads(thread *Thread, ok func(), fail func(error)) {
	rt.MainThreadGroup = NewJObject("java/lang/ThreadGroup")
	ok()
}

// InitSystemClass implements §4.7 step 3: initialize java/lang/System
// and mark the runtime as system-initialized so a second launch on the
// same Runtime skips this step.
func (rt *Runtime) InitSystemClass(thread *Thread, ok func(), fail func(error)) {
	rt.InitializeClass(thread, "Ljava/lang/System;", func(*Class) {
		rt.SystemInitialized = true
		ok()
	}, fail)
}
