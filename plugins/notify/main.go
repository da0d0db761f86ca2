// Package main is a hook plugin that shows desktop notifications for game events.
// It uses notify-send on Linux and AppleScript on macOS.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/goccy/go-json"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action   string          `json:"action"`
	Event    string          `json:"event"`
	Template string          `json:"template,omitempty"`
	Lines    int             `json:"lines,omitempty"`
	Score    int             `json:"score"`
	Config   json.RawMessage `json:"config"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config is the per-action configuration stored with the binding.
type Config struct {
	Title string `json:"title"`
	// DryRun returns the message without showing it.
	DryRun bool `json:"dry_run"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	cfg := Config{Title: "posetris"}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeResponse(Response{Error: fmt.Sprintf("invalid config: %v", err)})
			return
		}
	}

	message, err := describe(req)
	if err != nil {
		writeResponse(Response{Error: err.Error()})
		return
	}

	switch req.Action {
	case "notify":
		if !cfg.DryRun {
			if err := notify(cfg.Title, message); err != nil {
				writeResponse(Response{Error: fmt.Sprintf("notify failed: %v", err)})
				return
			}
		}
	case "log":
		fmt.Fprintln(os.Stderr, message)
	default:
		writeResponse(Response{Error: fmt.Sprintf("unknown action: %s", req.Action)})
		return
	}

	data, _ := json.Marshal(map[string]string{"message": message})
	writeResponse(Response{Success: true, Data: data})
}

// describe turns an event into a notification line.
func describe(req Request) (string, error) {
	switch req.Event {
	case "block_chosen":
		return fmt.Sprintf("Block %s chosen", req.Template), nil
	case "piece_locked":
		return fmt.Sprintf("Piece locked, score %d", req.Score), nil
	case "lines_cleared":
		if req.Lines == 1 {
			return fmt.Sprintf("1 line cleared, score %d", req.Score), nil
		}
		return fmt.Sprintf("%d lines cleared, score %d", req.Lines, req.Score), nil
	case "game_over":
		return fmt.Sprintf("Game over, final score %d", req.Score), nil
	default:
		return "", fmt.Errorf("unknown event: %q", req.Event)
	}
}

func notify(title, message string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q", message, title)
		cmd = exec.Command("osascript", "-e", script)
	case "linux":
		cmd = exec.Command("notify-send", title, message)
	default:
		return fmt.Errorf("notifications are not supported on %s", runtime.GOOS)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

func writeResponse(resp Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}
