package config

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var Debug = false
var DebugLog *log.Logger

// InfoLog is always on and writes to stderr so stdout stays free for node output.
var InfoLog = log.New(NewScrubWriter(os.Stderr), "", log.Ltime)

var secretPattern = regexp.MustCompile(`Bearer\s+[A-Za-z0-9\-_.]{20,}`)

// ScrubSecrets replaces bearer tokens with a redacted marker.
func ScrubSecrets(text string) string {
	return secretPattern.ReplaceAllString(text, "Bearer <redacted>")
}

type scrubWriter struct {
	w io.Writer
}

// NewScrubWriter wraps w so every write has bearer tokens redacted.
func NewScrubWriter(w io.Writer) io.Writer {
	return &scrubWriter{w: w}
}

func (s *scrubWriter) Write(p []byte) (int, error) {
	if _, err := io.WriteString(s.w, ScrubSecrets(string(p))); err != nil {
		return 0, err
	}
	return len(p), nil
}

func CheckDebug() bool {
	debug := os.Getenv("OLLAMA_NODES_DEBUG")
	return debug == "true" || debug == "1"
}

func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	Debug = true
	logPath := filepath.Join(dataDir, "debug.log")

	// 0600: prompts and responses end up in here
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	DebugLog = log.New(NewScrubWriter(f), "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (OLLAMA_NODES_DEBUG=%s) ===", os.Getenv("OLLAMA_NODES_DEBUG"))
	DebugLog.Printf("Log path: %s", logPath)
}

type requestIDKey struct{}

// NewRequestID returns a short correlation id such as "refresh-1a2b3c4d".
func NewRequestID(verb string) string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	if verb == "" {
		return id
	}
	return verb + "-" + id
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the correlation id carried by ctx, or "-".
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return "-"
	}
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return "-"
}

func Infof(ctx context.Context, format string, args ...any) {
	InfoLog.Printf("| %s | "+format, append([]any{RequestID(ctx)}, args...)...)
	debugOutput(ctx, 3, format, args...)
}

func Debugf(ctx context.Context, format string, args ...any) {
	debugOutput(ctx, 3, format, args...)
}

// debugOutput writes to DebugLog with the file:line of the frame depth
// calls above Output, so lines point at whoever called Infof or Debugf.
func debugOutput(ctx context.Context, depth int, format string, args ...any) {
	if !Debug || DebugLog == nil {
		return
	}
	DebugLog.Output(depth, fmt.Sprintf("[%s] ", RequestID(ctx))+fmt.Sprintf(format, args...))
}
