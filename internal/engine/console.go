package engine

import (
	"fmt"

	"github.com/dop251/goja"
)

// attachConsole installs a minimal console object capturing log/error/warn
// calls into logs, the same capture-by-closure approach
// system/tee/script_engine.go uses for processor stdout.
func attachConsole(rt *goja.Runtime, logs *[]string) error {
	console := rt.NewObject()
	capture := func(call goja.FunctionCall) goja.Value {
		parts := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			parts = append(parts, fmt.Sprintf("%v", arg.Export()))
		}
		line := ""
		for i, p := range parts {
			if i > 0 {
				line += " "
			}
			line += p
		}
		*logs = append(*logs, line)
		return goja.Undefined()
	}
	for _, name := range []string{"log", "error", "warn", "info", "debug"} {
		if err := console.Set(name, capture); err != nil {
			return err
		}
	}
	return rt.Set("console", console)
}
