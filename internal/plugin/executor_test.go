package plugin

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

// scriptPlugin writes a shell script plugin into a temp dir.
func scriptPlugin(t *testing.T, name, script string) *Plugin {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, name+".sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	return &Plugin{
		Manifest: Manifest{
			Name:       name,
			Version:    "1.0.0",
			Executable: name + ".sh",
			Actions:    []string{"notify"},
		},
		Path:       dir,
		Executable: path,
	}
}

func TestExecutor_Execute(t *testing.T) {
	plugin := scriptPlugin(t, "ok", `echo '{"success":true,"data":{"message":"hello world"}}'
`)

	executor := NewExecutor(5 * time.Second)
	response, err := executor.Execute(context.Background(), plugin, &Request{
		Action: "notify",
		Event:  "lines_cleared",
		Lines:  2,
		Config: json.RawMessage(`{"key":"value"}`),
	})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if !response.Success {
		t.Errorf("expected success=true, got false")
	}

	var data map[string]interface{}
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if data["message"] != "hello world" {
		t.Errorf("expected message 'hello world', got %v", data["message"])
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	plugin := scriptPlugin(t, "echo", `INPUT=$(cat)
echo "{\"success\":true,\"data\":{\"received\":$INPUT}}"
`)

	executor := NewExecutor(5 * time.Second)
	response, err := executor.Execute(context.Background(), plugin, &Request{
		Action:   "notify",
		Event:    "block_chosen",
		Template: "T_90",
		Score:    300,
		Config:   json.RawMessage(`{"setting":"enabled"}`),
		Params:   json.RawMessage(`{}`),
	})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var data struct {
		Received Request `json:"received"`
	}
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}

	got := data.Received
	if got.Action != "notify" || got.Event != "block_chosen" || got.Template != "T_90" || got.Score != 300 {
		t.Errorf("plugin received %+v", got)
	}
}

func TestExecutor_Timeout(t *testing.T) {
	plugin := scriptPlugin(t, "slow", `sleep 10
echo '{"success":true}'
`)

	executor := NewExecutor(100 * time.Millisecond)
	start := time.Now()
	_, err := executor.Execute(context.Background(), plugin, &Request{Action: "notify"})

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeout did not stop the plugin, returned after %v", elapsed)
	}
}

func TestExecutor_Timeout_KillsChildren(t *testing.T) {
	plugin := scriptPlugin(t, "nested", `sh -c 'sleep 10'
echo '{"success":true}'
`)

	executor := NewExecutor(100 * time.Millisecond)
	start := time.Now()
	_, err := executor.Execute(context.Background(), plugin, &Request{Action: "notify"})

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("nested child kept the run alive for %v", elapsed)
	}
}

func TestExecutor_BackgroundChildDoesNotBlock(t *testing.T) {
	plugin := scriptPlugin(t, "detach", `sleep 10 &
echo '{"success":true}'
`)

	executor := NewExecutor(5 * time.Second)
	start := time.Now()
	response, err := executor.Execute(context.Background(), plugin, &Request{Action: "notify"})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !response.Success {
		t.Errorf("expected success=true, got false")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("background child held the run for %v", elapsed)
	}
}

func TestExecutor_ErrorResponse(t *testing.T) {
	plugin := scriptPlugin(t, "fail", `echo '{"success":false,"error":"something went wrong"}'
`)

	response, err := NewExecutor(5*time.Second).Execute(context.Background(), plugin, &Request{Action: "notify"})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if response.Success {
		t.Errorf("expected success=false, got true")
	}
	if response.Error != "something went wrong" {
		t.Errorf("expected error 'something went wrong', got %q", response.Error)
	}
}

func TestExecutor_InvalidJSON(t *testing.T) {
	plugin := scriptPlugin(t, "bad", `echo 'not valid json'
`)

	if _, err := NewExecutor(5*time.Second).Execute(context.Background(), plugin, &Request{}); err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
}

func TestExecutor_NonZeroExit(t *testing.T) {
	plugin := scriptPlugin(t, "exit", `echo "Error: something failed" >&2
exit 1
`)

	if _, err := NewExecutor(5*time.Second).Execute(context.Background(), plugin, &Request{}); err == nil {
		t.Fatal("expected error for non-zero exit, got nil")
	}
}

func TestExecutor_CancelledContext(t *testing.T) {
	plugin := scriptPlugin(t, "slow", `sleep 10
`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewExecutor(5*time.Second).Execute(ctx, plugin, &Request{}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestNewExecutor(t *testing.T) {
	executor := NewExecutor(3 * time.Second)
	if executor.Timeout() != 3*time.Second {
		t.Errorf("expected timeout 3s, got %v", executor.Timeout())
	}
}
