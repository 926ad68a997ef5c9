package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/lumen/pkg/scene"
)

const targetFPS = 60

// spinImpulse is added to the spin speed by the arrow keys.
const spinImpulse = 0.05

// runTerminal draws the scene with half-block cells until the user quits
// or ctx is done. Each cell shows two canvas rows.
func runTerminal(ctx context.Context, sc *scene.Scene) error {
	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)
	sc.Resize(width, height*2)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// mu guards sc between the event goroutine and the render loop
	var mu sync.Mutex

	go func() {
		for ev := range term.Events() {
			mu.Lock()
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				width, height = ev.Width, ev.Height
				term.Erase()
				term.Resize(width, height)
				sc.Resize(width, height*2)

			case uv.KeyPressEvent:
				switch {
				case ev.MatchString("escape", "q", "ctrl+c"):
					cancel()
				case ev.MatchString("space"):
					sc.Spin.Pause()
				case ev.MatchString("left"):
					sc.Spin.Impulse(-spinImpulse)
				case ev.MatchString("right"):
					sc.Spin.Impulse(spinImpulse)
				default:
					for _, k := range []string{"n", "d", "s", "f"} {
						if ev.MatchString(k) {
							sc.Program.Options.Toggle(k)
							slog.Debug("toggled", "key", k, "options", sc.Program.Options)
						}
					}
				}
			}
			mu.Unlock()
		}
	}()

	cleanup := func() {
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}

	frame := time.Second / targetFPS
	for {
		select {
		case <-ctx.Done():
			cleanup()
			return nil
		default:
		}

		now := time.Now()

		mu.Lock()
		sc.Advance()
		sc.Render()
		sc.Canvas.Draw(term, term.Bounds())
		err := term.Display()
		mu.Unlock()

		if err != nil {
			cleanup()
			return fmt.Errorf("display: %w", err)
		}

		if elapsed := time.Since(now); elapsed < frame {
			time.Sleep(frame - elapsed)
		}
	}
}
