package app

import (
	"fmt"
	"strings"

	"rtsense/hal"
	"rtsense/kernel"
)

// installPanicHandler reports task faults on the board's diagnostic logger.
// The faulting task halts; the rest of the system keeps running.
func installPanicHandler(h hal.HAL) {
	kernel.SetPanicHandler(func(info kernel.PanicInfo) {
		l := h.Logger()
		if l == nil {
			return
		}
		for _, line := range panicLines(info) {
			l.WriteLineString(line)
		}
	})
}

func panicLines(info kernel.PanicInfo) []string {
	lines := []string{fmt.Sprintf("Panic: task=%d (%s) panic=%v", info.TaskID, info.Task, info.Value)}
	if len(info.Stack) == 0 {
		return append(lines, "stack: unavailable")
	}
	for _, line := range strings.Split(string(info.Stack), "\n") {
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
