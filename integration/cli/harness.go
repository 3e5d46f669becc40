//go:build integration

package cli

import (
	"bytes"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/schaermu/tokensync/internal/testutil"
)

// Harness runs the compiled tokensync binary against a test token endpoint
type Harness struct {
	t       *testing.T
	bin     string
	Tokens  *testutil.TokenServer
	cfgPath string
}

// NewHarness builds the binary and starts a token server serving tokens
func NewHarness(t *testing.T, tokens ...string) *Harness {
	t.Helper()

	h := &Harness{
		t:      t,
		bin:    testutil.BuildBinary(t),
		Tokens: testutil.NewTokenServer(t, tokens...),
	}

	h.cfgPath = filepath.Join(t.TempDir(), "config.yaml")
	h.WriteConfig("")
	return h
}

// WriteConfig rewrites the config file; extra is appended verbatim
func (h *Harness) WriteConfig(extra string) {
	h.t.Helper()
	content := "source:\n  url: \"" + h.Tokens.URL + "/db\"\n  timeout: 5s\n" + extra
	if err := os.WriteFile(h.cfgPath, []byte(content), 0o600); err != nil {
		h.t.Fatalf("write config: %v", err)
	}
}

// Run executes the binary with args and returns its combined output and exit code
func (h *Harness) Run(args ...string) (string, int) {
	h.t.Helper()

	full := append([]string{"--config", h.cfgPath, "--log-format", "json"}, args...)
	cmd := exec.Command(h.bin, full...)

	var buf bytes.Buffer
	cmd.Stdout = io.MultiWriter(&buf, &testWriter{t: h.t, prefix: "[tokensync] "})
	cmd.Stderr = cmd.Stdout

	err := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return buf.String(), 0
	case errors.As(err, &exitErr):
		return buf.String(), exitErr.ExitCode()
	default:
		h.t.Fatalf("run %v: %v", args, err)
		return "", -1
	}
}

// MustRun executes the binary and fails the test on a non-zero exit
func (h *Harness) MustRun(args ...string) string {
	h.t.Helper()
	out, code := h.Run(args...)
	if code != 0 {
		h.t.Fatalf("tokensync %v exited %d:\n%s", args, code, out)
	}
	return out
}

// Files returns name -> content for every regular file in dir
func (h *Harness) Files(dir string) map[string]string {
	h.t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		h.t.Fatalf("read dir: %v", err)
	}
	files := make(map[string]string)
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			h.t.Fatalf("read file: %v", err)
		}
		files[e.Name()] = string(data)
	}
	return files
}

// Names returns the sorted file names in dir
func (h *Harness) Names(dir string) []string {
	h.t.Helper()
	files := h.Files(dir)
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// testWriter wraps test logging for command output
type testWriter struct {
	t      *testing.T
	prefix string
}

func (w *testWriter) Write(p []byte) (n int, err error) {
	for _, line := range strings.Split(string(p), "\n") {
		if line != "" {
			w.t.Log(w.prefix + line)
		}
	}
	return len(p), nil
}

var _ io.Writer = (*testWriter)(nil)
