package main

import (
	"fmt"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/taigrr/lumen/pkg/config"
	"github.com/taigrr/lumen/pkg/scene"
)

// viewer presents a scene in a desktop window. The canvas follows the
// window size.
type viewer struct {
	sc *scene.Scene
}

var toggleKeys = map[ebiten.Key]string{
	ebiten.KeyN: "n",
	ebiten.KeyD: "d",
	ebiten.KeyS: "s",
	ebiten.KeyF: "f",
}

func (v *viewer) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	for key, name := range toggleKeys {
		if inpututil.IsKeyJustPressed(key) {
			v.sc.Program.Options.Toggle(name)
			slog.Debug("toggled", "key", name, "options", v.sc.Program.Options)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		v.sc.Spin.Pause()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyLeft) {
		v.sc.Spin.Impulse(-spinImpulse)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyRight) {
		v.sc.Spin.Impulse(spinImpulse)
	}

	v.sc.Advance()
	return nil
}

func (v *viewer) Draw(screen *ebiten.Image) {
	b := screen.Bounds()
	if b.Dx() != v.sc.Canvas.Width || b.Dy() != v.sc.Canvas.Height {
		v.sc.Resize(b.Dx(), b.Dy())
	}
	v.sc.Render()
	screen.WritePixels(v.sc.Canvas.Pix)
}

func (v *viewer) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	return max(outsideWidth, 1), max(outsideHeight, 1)
}

// runWindow opens a resizable window and renders until it is closed.
func runWindow(sc *scene.Scene, cfg *config.Config) error {
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowTitle("lumen - " + sc.Mesh.Name)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetVsyncEnabled(true)
	ebiten.SetTPS(targetFPS)

	if err := ebiten.RunGame(&viewer{sc: sc}); err != nil {
		return fmt.Errorf("run window: %w", err)
	}
	return nil
}
