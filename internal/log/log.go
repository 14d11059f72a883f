package log

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	initOnce    sync.Once
	initialized atomic.Bool
)

// Setup routes the default slog logger to a rotated JSON log file.
func Setup(logFile string, debug bool) {
	initOnce.Do(func() {
		logRotator := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10,    // Max size in MB
			MaxBackups: 0,     // Number of backups
			MaxAge:     30,    // Days
			Compress:   false, // Enable compression
		}

		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}

		logger := slog.NewJSONHandler(logRotator, &slog.HandlerOptions{
			Level:     level,
			AddSource: true,
		})

		slog.SetDefault(slog.New(logger))
		initialized.Store(true)
	})
}

func Initialized() bool {
	return initialized.Load()
}

// RecoverPanic writes a panic report next to the working directory and runs
// cleanup. It must be deferred directly.
func RecoverPanic(name string, cleanup func()) {
	if r := recover(); r != nil {
		timestamp := time.Now().Format("20060102-150405")
		filename := fmt.Sprintf("tracetree-panic-%s-%s.log", name, timestamp)

		slog.Error("Recovered from panic", "name", name, "panic", r, "report", filename)

		file, err := os.Create(filename)
		if err == nil {
			defer file.Close()

			fmt.Fprintf(file, "Panic in %s: %v\n\n", name, r)
			fmt.Fprintf(file, "Time: %s\n\n", time.Now().Format(time.RFC3339))
			fmt.Fprintf(file, "Stack Trace:\n%s\n", debug.Stack())
		}

		if cleanup != nil {
			cleanup()
		}
	}
}
