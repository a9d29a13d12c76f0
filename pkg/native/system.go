package native

import (
	"fmt"
	"io"
)

// PrintStream is the core's representation of a java.io.PrintStream,
// standing in for System.out/System.err without interpreting the real
// PrintStream bytecode.
type PrintStream struct {
	Writer io.Writer
}

// Println writes one value, or a bare newline if called with none.
func (ps *PrintStream) Println(args ...interface{}) {
	if len(args) == 0 {
		fmt.Fprintln(ps.Writer)
		return
	}
	fmt.Fprintln(ps.Writer, args[0])
}

func registerPrintStream(reg *Registry) {
	register := func(nameDesc string) {
		reg.Register("java/io/PrintStream", nameDesc, func(args []interface{}) (interface{}, error) {
			ps := args[1].(*PrintStream)
			if len(args) > 2 {
				ps.Println(args[2])
			} else {
				ps.Println()
			}
			return nil, nil
		})
	}
	register("println()V")
	register("println(I)V")
	register("println(Ljava/lang/String;)V")
	register("println(Ljava/lang/Object;)V")
}
