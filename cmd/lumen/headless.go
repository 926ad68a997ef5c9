package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/cpuid/v2"
	"github.com/schollz/progressbar/v3"

	"github.com/taigrr/lumen/pkg/config"
	"github.com/taigrr/lumen/pkg/render"
	"github.com/taigrr/lumen/pkg/scene"
)

// renderHeadless renders cfg.Output.Frames frames, turning the model by
// one frame of spin before each, and saves them as PNG files.
func renderHeadless(sc *scene.Scene, cfg *config.Config) error {
	n := cfg.Output.Frames

	var bar *progressbar.ProgressBar
	if n > 1 {
		bar = progressbar.Default(int64(n), "rendering")
		defer bar.Close()
	}

	var total render.Stats
	start := time.Now()
	for i := range n {
		sc.Advance()
		stats := sc.Render()
		total.Add(stats)

		path := framePath(cfg.Output.Path, i, n)
		if err := sc.Canvas.SavePNG(path); err != nil {
			return fmt.Errorf("frame %d: %w", i+1, err)
		}
		slog.Debug("wrote frame", "path", path, "written", stats.Written, "culled", stats.Culled)

		if bar != nil {
			_ = bar.Add(1)
		}
	}

	elapsed := time.Since(start)
	slog.Info("render complete",
		"frames", n,
		"elapsed", elapsed.Round(time.Millisecond),
		"per_frame", (elapsed / time.Duration(n)).Round(time.Microsecond),
		"triangles", total.Triangles,
		"culled", total.Culled,
		"offscreen", total.Offscreen,
		"degenerate", total.Degenerate,
		"fragments", total.Fragments,
		"written", total.Written,
		"cpu", cpuid.CPU.BrandName,
		"cores", cpuid.CPU.PhysicalCores)
	return nil
}

// framePath returns path for a single frame, otherwise path with a
// 1-based frame number before the extension: out.png -> out-0001.png.
func framePath(path string, i, n int) string {
	if n == 1 {
		return path
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s-%04d%s", strings.TrimSuffix(path, ext), i+1, ext)
}
