// Package testutil holds helpers shared by package and integration tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
)

// FindProjectRoot walks up from the caller's source file to the directory holding go.mod
func FindProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(1)
	if !ok {
		return "", fmt.Errorf("failed to get caller information")
	}

	for dir := filepath.Dir(filename); ; {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found in any parent directory")
		}
		dir = parent
	}
}

// BuildBinary compiles cmd/tokensync into a temporary directory and returns its path
func BuildBinary(t *testing.T) string {
	t.Helper()

	root, err := FindProjectRoot()
	if err != nil {
		t.Fatalf("find project root: %v", err)
	}

	bin := filepath.Join(t.TempDir(), "tokensync")
	if runtime.GOOS == "windows" {
		bin += ".exe"
	}

	cmd := exec.Command("go", "build", "-o", bin, "./cmd/tokensync")
	cmd.Dir = root
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("go build: %v: %s", err, out)
	}
	return bin
}

// TokenServer is a test endpoint serving {"data": tokens} on every path
type TokenServer struct {
	*httptest.Server

	mu     sync.Mutex
	tokens []string
}

// NewTokenServer starts a TokenServer that is closed when the test ends
func NewTokenServer(t *testing.T, tokens ...string) *TokenServer {
	t.Helper()

	ts := &TokenServer{tokens: tokens}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.mu.Lock()
		doc := map[string][]string{"data": ts.tokens}
		ts.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(doc)
	}))
	t.Cleanup(ts.Close)

	return ts
}

// SetTokens changes the tokens served to later requests
func (ts *TokenServer) SetTokens(tokens ...string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.tokens = tokens
}
