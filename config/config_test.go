package config

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromCreatesTemplate(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("OLLAMA_NODES_ENDPOINT", "")
	t.Setenv("OLLAMA_NODES_DATA_DIR", filepath.Join(dir, "data"))

	path := filepath.Join(dir, "conf", "config.toml")
	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.True(t, FileExists(path), "template should be written")
	assert.Equal(t, DefaultEndpoint, cfg.Endpoint)
	assert.Equal(t, "-1", cfg.DefaultKeepAlive)
	assert.Equal(t, 20*time.Second, cfg.Timeouts.List)
	assert.Equal(t, time.Duration(0), cfg.Timeouts.Chat)
	assert.DirExists(t, filepath.Join(dir, "data"))
}

func TestLoadFromParsesFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("OLLAMA_NODES_ENDPOINT", "")
	t.Setenv("OLLAMA_NODES_DATA_DIR", "")

	path := filepath.Join(dir, "config.toml")
	content := `data_directory = "` + filepath.ToSlash(filepath.Join(dir, "store")) + `"

[ollama]
endpoint = "http://gpu-box:11434"
keep_alive = "5m"
warm_endpoints = ["http://gpu-box:11434", "http://other:11434"]

[timeouts]
list = "3s"
chat = "2m"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "http://gpu-box:11434", cfg.Endpoint)
	assert.Equal(t, "5m", cfg.DefaultKeepAlive)
	assert.Equal(t, 3*time.Second, cfg.Timeouts.List)
	assert.Equal(t, 2*time.Minute, cfg.Timeouts.Chat)
	assert.Equal(t, []string{"http://gpu-box:11434", "http://other:11434"}, cfg.Endpoints())
}

func TestEnvOverridesWin(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("OLLAMA_NODES_ENDPOINT", "http://env-host:1")
	t.Setenv("OLLAMA_NODES_DATA_DIR", filepath.Join(dir, "env-data"))

	cfg, err := LoadFrom(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)

	assert.Equal(t, "http://env-host:1", cfg.Endpoint)
	assert.Equal(t, filepath.Join(dir, "env-data"), cfg.DataDir())
}

func TestLoadFromRejectsBadToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[ollama\nendpoint ="), 0600))

	_, err := LoadFrom(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestScrubSecrets(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"token", "auth Bearer abcdefghijklmnopqrstuvwxyz012", "auth Bearer <redacted>"},
		{"short token kept", "Bearer short", "Bearer short"},
		{"no token", "plain message", "plain message"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScrubSecrets(tt.in))
		})
	}
}

func TestScrubWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewScrubWriter(&buf)
	in := []byte("header Bearer 0123456789abcdefghijKLMNOP\n")
	n, err := w.Write(in)
	require.NoError(t, err)
	assert.Equal(t, len(in), n)
	assert.Equal(t, "header Bearer <redacted>\n", buf.String())
}

func TestRequestID(t *testing.T) {
	id := NewRequestID("refresh")
	assert.Regexp(t, `^refresh-[0-9a-f]{8}$`, id)

	ctx := WithRequestID(context.Background(), id)
	assert.Equal(t, id, RequestID(ctx))
	assert.Equal(t, "-", RequestID(context.Background()))
}

func TestDebugLogReportsCaller(t *testing.T) {
	oldDebug, oldDebugLog, oldInfoLog := Debug, DebugLog, InfoLog
	t.Cleanup(func() { Debug, DebugLog, InfoLog = oldDebug, oldDebugLog, oldInfoLog })

	var debugBuf, infoBuf bytes.Buffer
	Debug = true
	DebugLog = log.New(&debugBuf, "", log.Lshortfile)
	InfoLog = log.New(&infoBuf, "", 0)

	ctx := WithRequestID(context.Background(), "load-1234abcd")
	Debugf(ctx, "from debug")
	Infof(ctx, "from info")

	lines := strings.Split(strings.TrimSpace(debugBuf.String()), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "config_test.go:"), line)
		assert.Contains(t, line, "[load-1234abcd]")
	}
	assert.Contains(t, infoBuf.String(), "| load-1234abcd | from info")
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	assert.Equal(t, filepath.Clean("/home/tester/data"), ExpandPath("~/data"))
	assert.Equal(t, "", ExpandPath(""))
}
