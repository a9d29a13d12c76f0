package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/gojvm-core/gojvm/pkg/vm"
)

func findJmodPath() string {
	if env := os.Getenv("JAVA_BASE_JMOD"); env != "" {
		return env
	}
	if javaHome := os.Getenv("JAVA_HOME"); javaHome != "" {
		p := filepath.Join(javaHome, "jmods", "java.base.jmod")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	matches, _ := filepath.Glob("/usr/lib/jvm/java-*-openjdk-*/jmods/java.base.jmod")
	if len(matches) > 0 {
		return matches[0]
	}
	return ""
}

func main() {
	verbosity := 0
	if os.Getenv("GOJVM_VERBOSE") != "" {
		verbosity = 1
	}
	commonlog.Configure(verbosity, nil)

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: gojvm <classfile> [args...]\n")
		os.Exit(1)
	}

	filename := os.Args[1]
	programArgs := os.Args[2:]
	dir := filepath.Dir(filename)
	className := strings.TrimSuffix(filepath.Base(filename), ".class")

	jmodPath := findJmodPath()
	if jmodPath == "" {
		fmt.Fprintf(os.Stderr, "Error: could not find java.base.jmod. Set JAVA_HOME or JAVA_BASE_JMOD.\n")
		os.Exit(1)
	}

	cp := vm.SetClasspath(jmodPath, dir)
	rt := vm.NewRuntime(cp)
	thread := vm.NewThread("main", rt)

	if err := vm.Launch(rt, thread, className, programArgs); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing %s: %v\n", className, err)
		os.Exit(1)
	}
}
