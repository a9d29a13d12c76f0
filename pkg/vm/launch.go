package vm

import "github.com/pkg/errors"

// syncStep adapts one (ok, fail)-shaped Runtime bootstrap step into a
// blocking call, so Launch can express its five steps (§4.7) as a plain
// sequence rather than a callback pyramid, without giving up the
// Executor's tracked-goroutine discipline underneath each step.
func syncStep(step func(ok func(), fail func(error))) error {
	done := make(chan error, 1)
	step(func() { done <- nil }, func(err error) { done <- err })
	return <-done
}

// Launch runs the five-step bring-up sequence §4.7 describes: bring up
// the core classes, set up the main thread group, initialize
// java/lang/System, initialize the requested main class, then find and
// invoke its public static void main(String[]) with args turned into a
// java.lang.String[].
func Launch(rt *Runtime, thread *Thread, mainClassName string, args []string) error {
	rt.CmdlineArgs = args

	var result error
	rt.Exec.RunUntilFinished(func() {
		if err := syncStep(func(ok func(), fail func(error)) {
			rt.PreinitializeCoreClasses(thread, ok, fail)
		}); err != nil {
			launchLog.Errorf("preinitializing core classes: %v", err)
			result = err
			return
		}
		if err := syncStep(func(ok func(), fail func(error)) {
			rt.InitThreads(thread, ok, fail)
		}); err != nil {
			launchLog.Warningf("init_threads failed, stopping launch silently: %v", err)
			result = err
			return
		}
		if !rt.SystemInitialized {
			if err := syncStep(func(ok func(), fail func(error)) {
				rt.InitSystemClass(thread, ok, fail)
			}); err != nil {
				launchLog.Warningf("init_system_class failed, stopping launch silently: %v", err)
				result = err
				return
			}
		}

		mainClass, err := rt.ensureInitializedSync(thread, "L"+mainClassName+";")
		if err != nil {
			launchLog.Warningf("initializing main class %s: %v", mainClassName, err)
			result = err
			return
		}

		m := mainClass.FindMethod("main", "([Ljava/lang/String;)V")
		if m == nil {
			launchLog.Warningf("no main method found in %s", mainClassName)
			result = errors.Errorf("no main method found in %s", mainClassName)
			return
		}

		argv := &JArray{ElementType: "Ljava/lang/String;", Elements: make([]Value, len(args))}
		for i, a := range args {
			argv.Elements[i] = RefValue(a)
		}
		_, result = rt.InvokeMethod(thread, m, []Value{RefValue(argv)})
	})
	return result
}
