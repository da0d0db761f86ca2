// Package tray provides a system tray menu for controlling a running Posetris game.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/posetris/internal/session"
)

// Tray represents the system tray application.
type Tray struct {
	onPause   func(paused bool)
	onNewGame func()
	onOpen    func()
	onQuit    func()
	paused    bool
	mu        sync.RWMutex

	// Menu items stored for later updates
	menuPause  *systray.MenuItem
	menuStatus *systray.MenuItem
}

// New creates a new Tray instance for a running game.
func New() *Tray {
	return &Tray{}
}

// OnPause sets the callback function to be called when the pause item is toggled.
func (t *Tray) OnPause(fn func(paused bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPause = fn
}

// OnNewGame sets the callback function to be called when a new game is requested.
func (t *Tray) OnNewGame(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onNewGame = fn
}

// OnOpen sets the callback function to be called when the board menu item is clicked.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Posetris")
	systray.SetTooltip("Posetris: Tetris played with your body")

	t.mu.Lock()
	t.menuStatus = systray.AddMenuItem(statusLabel(session.Snapshot{}), "Current game")
	t.menuStatus.Disable()
	systray.AddSeparator()

	t.menuPause = systray.AddMenuItem(pauseLabel(t.paused), "Pause or resume the game")
	t.mu.Unlock()
	menuNewGame := systray.AddMenuItem("New Game", "Start a new game")
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Board...", "Open the board in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Posetris")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuPause.ClickedCh:
				t.handlePause()
			case <-menuNewGame.ClickedCh:
				t.call(&t.onNewGame)
			case <-menuOpen.ClickedCh:
				t.call(&t.onOpen)
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handlePause handles the pause menu item click.
func (t *Tray) handlePause() {
	t.mu.Lock()
	t.paused = !t.paused
	paused := t.paused
	if t.menuPause != nil {
		t.menuPause.SetTitle(pauseLabel(paused))
	}
	callback := t.onPause
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(paused)
	}
}

func (t *Tray) call(fn *func()) {
	t.mu.RLock()
	callback := *fn
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.call(&t.onQuit)
	systray.Quit()
}

// Update shows the latest game state in the menu.
func (t *Tray) Update(s session.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.paused = s.Paused
	if t.menuStatus != nil {
		t.menuStatus.SetTitle(statusLabel(s))
	}
	if t.menuPause != nil {
		t.menuPause.SetTitle(pauseLabel(s.Paused))
	}
}

// IsPaused returns the pause state last shown in the menu.
func (t *Tray) IsPaused() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.paused
}

func pauseLabel(paused bool) string {
	if paused {
		return "▶ Resume"
	}
	return "❚❚ Pause"
}

func statusLabel(s session.Snapshot) string {
	if s.Phase == session.PhaseGameOver {
		return fmt.Sprintf("Game over, score %d", s.Score)
	}
	return fmt.Sprintf("%s, score %d", s.Phase, s.Score)
}
