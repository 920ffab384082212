package safe

import (
	"log/slog"
	"runtime/debug"
	"strings"
)

// Run 执行 fn 并吞掉 panic，仅记录日志
func Run(fn func()) {
	RunWithLog(fn, "safe.Run")
}

// RunWithLog is a wrapper that executes fn and logs any panic with full stack trace
func RunWithLog(fn func(), component string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic recovered",
				slog.Any("recover", r),
				slog.String("component", component),
				slog.String("stack", stackTrace(20)),
			)
		}
	}()

	fn()
}

// Go starts fn in a new goroutine guarded by RunWithLog.
func Go(component string, fn func()) {
	go RunWithLog(fn, component)
}

func stackTrace(maxFrames int) string {
	lines := strings.Split(string(debug.Stack()), "\n")
	var formatted []string
	for i, line := range lines {
		if i > maxFrames*2 {
			formatted = append(formatted, "... (truncated)")
			break
		}
		if line = strings.TrimSpace(line); line != "" {
			formatted = append(formatted, line)
		}
	}
	return strings.Join(formatted, "\n")
}
