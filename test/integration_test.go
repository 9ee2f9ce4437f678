// ABOUTME: Integration tests for the whoop CLI.
// ABOUTME: Builds the binary and runs fetch and export against a fake WHOOP API.
package test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func fakeWhoop(t *testing.T, testdata string) *httptest.Server {
	t.Helper()
	payload := func(name string) []byte {
		data, err := os.ReadFile(filepath.Join(testdata, name+".json"))
		if err != nil {
			t.Fatalf("read testdata: %v", err)
		}
		return data
	}
	routes := map[string][]byte{
		"/developer/v1/cycle":            payload("cycle"),
		"/developer/v1/recovery":         payload("recovery"),
		"/developer/v1/activity/sleep":   payload("sleep"),
		"/developer/v1/activity/workout": payload("workout"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access","refresh_token":"next","expires_in":3600}`))
	})
	for path, body := range routes {
		body := body
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer access" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write(body)
		})
	}
	return httptest.NewServer(mux)
}

func TestFullWorkflow(t *testing.T) {
	// Build the binary
	projectRoot, _ := filepath.Abs("..")
	whoopBinary := filepath.Join(projectRoot, "whoop")

	buildCmd := exec.Command("go", "build", "-o", whoopBinary, "./cmd/whoop")
	buildCmd.Dir = projectRoot
	if output, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build: %v\n%s", err, output)
	}
	defer os.Remove(whoopBinary)

	api := fakeWhoop(t, filepath.Join(projectRoot, "internal", "ingest", "testdata"))
	defer api.Close()

	// Use temp config so nothing touches the real one
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	run := func(args ...string) (string, error) {
		cmd := exec.Command(whoopBinary, args...)
		cmd.Dir = tmpDir
		cmd.Env = append(os.Environ(),
			"WHOOP_CONFIG="+configPath,
			"WHOOP_BASE_URL="+api.URL,
			"WHOOP_CLIENT_ID=client",
			"WHOOP_CLIENT_SECRET=secret",
			"WHOOP_REFRESH_TOKEN=seed",
			"WHOOP_LOG_LEVEL=error",
		)
		output, err := cmd.CombinedOutput()
		return string(output), err
	}

	// Test listing fields
	output, err := run("fields", "cycle")
	if err != nil {
		t.Fatalf("Failed to list fields: %v\n%s", err, output)
	}
	if !strings.Contains(output, "0x2100") || !strings.Contains(output, "score.strain") {
		t.Errorf("Expected cycle strain in fields output, got: %s", output)
	}

	// Test fetching one variant
	output, err = run("fetch", "cycle")
	if err != nil {
		t.Fatalf("Failed to fetch cycle: %v\n%s", err, output)
	}
	if !strings.Contains(output, "93845") {
		t.Errorf("Expected cycle id in fetch output, got: %s", output)
	}

	// Test fetching everything
	output, err = run("fetch")
	if err != nil {
		t.Fatalf("Failed to fetch all: %v\n%s", err, output)
	}
	for _, want := range []string{"recovery", "sleep", "cycle", "workout"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in fetch output, got: %s", want, output)
		}
	}

	// Test unknown variant
	output, err = run("fetch", "steps")
	if err == nil {
		t.Errorf("Expected error for unknown variant, got: %s", output)
	}

	// Test export
	output, err = run("export", "json")
	if err != nil {
		t.Fatalf("Failed to export: %v\n%s", err, output)
	}
	if !strings.Contains(output, `"variant": "recovery"`) {
		t.Errorf("Expected recovery record in export, got: %s", output)
	}
}
