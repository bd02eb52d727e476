package log

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

var (
	mu     sync.Mutex
	logger zerolog.Logger
	inited bool
)

// initLogger initializes the global logger to write to stderr with timestamps.
func initLogger() {
	if inited {
		return
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339Nano}
	logger = zerolog.New(out).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	inited = true
}

func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	initLogger()
	switch l {
	case LevelDebug:
		logger = logger.Level(zerolog.DebugLevel)
	case LevelInfo:
		logger = logger.Level(zerolog.InfoLevel)
	case LevelError:
		logger = logger.Level(zerolog.ErrorLevel)
	}
}

func Debug(msg string, kv ...any) {
	l := get()
	emit(l.Debug(), msg, kv...)
}

func Info(msg string, kv ...any) {
	l := get()
	emit(l.Info(), msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	l := get()
	emit(l.Error().Err(err), msg, kv...)
}

func get() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	initLogger()
	return logger
}

// emit attaches kv as structured fields. Expect kv as pairs:
// key, value, key, value, ... A trailing odd value is ignored, and
// non-string keys are skipped rather than panicking.
func emit(e *zerolog.Event, msg string, kv ...any) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, kv[i+1])
	}
	e.Msg(msg)
}
