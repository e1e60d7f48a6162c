package flog

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type Level int32

const (
	Debug Level = iota
	Info
	Warn
	Error
	None
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "NONE"}

func (l Level) String() string {
	if l < Debug || l > None {
		return fmt.Sprintf("Level(%d)", int32(l))
	}
	return levelNames[l]
}

// ParseLevel accepts the names used in the log section of the config.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug, nil
	case "info", "":
		return Info, nil
	case "warn", "warning":
		return Warn, nil
	case "error":
		return Error, nil
	case "none", "off":
		return None, nil
	}
	return Info, fmt.Errorf("unknown log level %q", s)
}

type logger struct {
	level   atomic.Int32
	mu      sync.Mutex
	out     io.Writer
	ch      chan string
	dropped atomic.Uint64
	done    chan struct{}
	chMu    sync.RWMutex
	closed  bool
}

var std = newLogger(os.Stdout)

func newLogger(w io.Writer) *logger {
	l := &logger{
		out:  w,
		ch:   make(chan string, 4096),
		done: make(chan struct{}),
	}
	l.level.Store(int32(Info))
	go l.loop()
	return l
}

func (l *logger) loop() {
	for line := range l.ch {
		l.mu.Lock()
		io.WriteString(l.out, line)
		l.mu.Unlock()
	}
	close(l.done)
}

// logf never blocks the caller; lines are dropped when the queue is full.
func (l *logger) logf(lvl Level, format string, args ...any) {
	if lvl < Level(l.level.Load()) {
		return
	}
	line := fmt.Sprintf("%s [%s] %s\n", time.Now().Format("2006-01-02 15:04:05.000"), lvl, fmt.Sprintf(format, args...))
	l.chMu.RLock()
	defer l.chMu.RUnlock()
	if l.closed {
		l.mu.Lock()
		io.WriteString(l.out, line)
		l.mu.Unlock()
		return
	}
	select {
	case l.ch <- line:
	default:
		l.dropped.Add(1)
	}
}

func (l *logger) flush() {
	l.chMu.Lock()
	if !l.closed {
		l.closed = true
		close(l.ch)
	}
	l.chMu.Unlock()
	<-l.done
}

func SetLevel(lvl Level) { std.level.Store(int32(lvl)) }

func GetLevel() Level { return Level(std.level.Load()) }

func SetOutput(w io.Writer) {
	std.mu.Lock()
	std.out = w
	std.mu.Unlock()
}

// Dropped reports how many lines were discarded because the queue was full.
func Dropped() uint64 { return std.dropped.Load() }

func Debugf(format string, args ...any) { std.logf(Debug, format, args...) }
func Infof(format string, args ...any) { std.logf(Info, format, args...) }
func Warnf(format string, args ...any) { std.logf(Warn, format, args...) }
func Errorf(format string, args ...any) { std.logf(Error, format, args...) }

// Fatalf logs, flushes pending lines and exits the process.
func Fatalf(format string, args ...any) {
	std.logf(Error, format, args...)
	Close()
	os.Exit(1)
}

// Close flushes queued lines; later lines are written synchronously.
func Close() { std.flush() }
