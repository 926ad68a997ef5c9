package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/taigrr/lumen/pkg/models"
	"github.com/taigrr/lumen/pkg/render"
	"github.com/taigrr/lumen/pkg/scene"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Width != 640 || cfg.Height != 480 {
		t.Errorf("size = %dx%d, want 640x480", cfg.Width, cfg.Height)
	}
	if cfg.Options() != render.DefaultOptions() {
		t.Errorf("Options() = %+v, want %+v", cfg.Options(), render.DefaultOptions())
	}
	if cfg.Level() != slog.LevelInfo {
		t.Errorf("Level() = %v", cfg.Level())
	}
}

func TestParse(t *testing.T) {
	src := `
width: 320
height: 200
model: head.obj
shading:
  specular_mapping: false
  filter: " Nearest "
camera:
  angle: 0.5
  auto_frame: true
output:
  frames: 0
log:
  level: DEBUG
`
	cfg, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Width != 320 || cfg.Height != 200 {
		t.Errorf("size = %dx%d", cfg.Width, cfg.Height)
	}
	// Unset keys keep their defaults
	if !cfg.Shading.NormalMapping || cfg.Shading.SpecularMapping {
		t.Errorf("shading = %+v", cfg.Shading)
	}
	if cfg.Camera.Distance != scene.DefaultDistance || cfg.Camera.Angle != 0.5 || !cfg.Camera.AutoFrame {
		t.Errorf("camera = %+v", cfg.Camera)
	}
	if cfg.Options().Filter != render.FilterNearest {
		t.Errorf("filter = %v, want nearest", cfg.Options().Filter)
	}
	if cfg.Output.Frames != 1 {
		t.Errorf("frames = %d, want clamped to 1", cfg.Output.Frames)
	}
	if cfg.Level() != slog.LevelDebug {
		t.Errorf("Level() = %v, want debug", cfg.Level())
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"zero width", "width: 0"},
		{"negative distance", "camera: {distance: -1}"},
		{"negative perspective", "camera: {perspective: -0.1}"},
		{"unknown filter", "shading: {filter: trilinear}"},
		{"unknown level", "log: {level: loud}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("Parse() error = %v, want ErrInvalid", err)
			}
		})
	}

	if _, err := Parse([]byte("width: [1, 2")); err == nil || errors.Is(err, ErrInvalid) {
		t.Errorf("malformed YAML error = %v, want a decode error", err)
	}
}

func TestLoadResolvesPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yaml")
	src := "model: models/head.obj\ntextures:\n  diffuse: /abs/d.png\n  normal: n.png\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := filepath.Join(dir, "models", "head.obj"); cfg.Model != want {
		t.Errorf("Model = %q, want %q", cfg.Model, want)
	}
	if cfg.Textures.Diffuse != "/abs/d.png" {
		t.Errorf("Diffuse = %q, absolute path changed", cfg.Textures.Diffuse)
	}
	if want := filepath.Join(dir, "n.png"); cfg.Textures.Normal != want {
		t.Errorf("Normal = %q, want %q", cfg.Textures.Normal, want)
	}
	if cfg.Textures.Specular != "" {
		t.Errorf("Specular = %q, want empty", cfg.Textures.Specular)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error = %v, want ErrNotExist", err)
	}
}

func TestApply(t *testing.T) {
	mesh, err := models.ParseOBJ(strings.NewReader("v 0 0 0\nv 4 0 0\nv 0 4 0\nf 1 2 3\n"))
	if err != nil {
		t.Fatal(err)
	}
	sc := scene.New(8, 8, mesh, render.NewProgram(nil, nil, nil))

	cfg := Default()
	cfg.Camera.Distance = 5
	cfg.Camera.Angle = 1
	cfg.Camera.AutoFrame = true
	cfg.Shading.DiffuseMapping = false
	cfg.Apply(sc)

	if sc.Camera.Distance != 5 || sc.Camera.Angle != 1 {
		t.Errorf("camera = %+v", sc.Camera)
	}
	if sc.Program.Options.DiffuseMapping {
		t.Error("DiffuseMapping still on")
	}
	if sc.Model() == scene.New(8, 8, mesh, nil).Model() {
		t.Error("AutoFrame not applied")
	}
}
