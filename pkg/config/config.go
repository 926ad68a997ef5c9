// Package config loads lumen's YAML scene description.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/taigrr/lumen/pkg/render"
	"github.com/taigrr/lumen/pkg/scene"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Config describes one scene and how to present it.
type Config struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Model  string `yaml:"model"`

	Textures Textures `yaml:"textures"`
	Shading  Shading  `yaml:"shading"`
	Camera   Camera   `yaml:"camera"`
	Output   Output   `yaml:"output"`
	Log      Log      `yaml:"log"`
}

// Textures are image paths; empty disables the map.
type Textures struct {
	Diffuse  string `yaml:"diffuse"`
	Specular string `yaml:"specular"`
	Normal   string `yaml:"normal"`
}

type Shading struct {
	NormalMapping   bool   `yaml:"normal_mapping"`
	DiffuseMapping  bool   `yaml:"diffuse_mapping"`
	SpecularMapping bool   `yaml:"specular_mapping"`
	Filter          string `yaml:"filter"` // nearest or bilinear
}

type Camera struct {
	Distance    float32 `yaml:"distance"`
	Height      float32 `yaml:"height"`
	Angle       float32 `yaml:"angle"`
	Spin        float32 `yaml:"spin"` // radians per frame
	Perspective float32 `yaml:"perspective"`
	AutoFrame   bool    `yaml:"auto_frame"`
}

// Output controls headless rendering. An empty Path opens a viewer instead.
type Output struct {
	Path   string `yaml:"path"`
	Frames int    `yaml:"frames"`
}

type Log struct {
	Level string `yaml:"level"` // debug, info, warn or error
}

// Default returns the demo scene: a 640x480 canvas, the model turning in
// front of the camera with every map enabled.
func Default() *Config {
	return &Config{
		Width:  640,
		Height: 480,
		Shading: Shading{
			NormalMapping:   true,
			DiffuseMapping:  true,
			SpecularMapping: true,
			Filter:          render.FilterBilinear.String(),
		},
		Camera: Camera{
			Distance:    scene.DefaultDistance,
			Height:      scene.DefaultHeight,
			Angle:       scene.DefaultAngle,
			Spin:        scene.DefaultSpin,
			Perspective: scene.DefaultPerspective,
		},
		Output: Output{Frames: 1},
		Log:    Log{Level: "info"},
	}
}

// Load reads a YAML file over Default. Relative model and texture paths
// are resolved against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	cfg.resolve(filepath.Dir(path))
	return cfg, nil
}

// Parse decodes YAML over Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Shading.Filter = strings.ToLower(strings.TrimSpace(c.Shading.Filter))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Output.Frames < 1 {
		c.Output.Frames = 1
	}
}

func (c *Config) resolve(dir string) {
	for _, p := range []*string{&c.Model, &c.Textures.Diffuse, &c.Textures.Specular, &c.Textures.Normal} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

// Validate checks the values a render cannot start without.
func (c *Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: canvas size %dx%d", ErrInvalid, c.Width, c.Height)
	case c.Camera.Distance <= 0:
		return fmt.Errorf("%w: camera distance %v", ErrInvalid, c.Camera.Distance)
	case c.Camera.Perspective < 0:
		return fmt.Errorf("%w: perspective %v", ErrInvalid, c.Camera.Perspective)
	}
	if _, err := render.ParseFilterMode(c.Shading.Filter); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return fmt.Errorf("%w: log level %q", ErrInvalid, c.Log.Level)
	}
	return nil
}

// Options returns the shading toggles. Call after Validate.
func (c *Config) Options() render.Options {
	filter, _ := render.ParseFilterMode(c.Shading.Filter)
	return render.Options{
		NormalMapping:   c.Shading.NormalMapping,
		DiffuseMapping:  c.Shading.DiffuseMapping,
		SpecularMapping: c.Shading.SpecularMapping,
		Filter:          filter,
	}
}

// Level returns the configured slog level, Info if it does not parse.
func (c *Config) Level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Apply copies the camera settings onto a scene.
func (c *Config) Apply(s *scene.Scene) {
	s.Camera.SetPlacement(c.Camera.Distance, c.Camera.Height)
	s.Camera.SetAngle(c.Camera.Angle)
	s.Camera.SetPerspective(c.Camera.Perspective)
	s.Spin = scene.NewSpin(60, float64(c.Camera.Spin))
	s.Program.Options = c.Options()
	if c.Camera.AutoFrame {
		s.AutoFrame()
	}
}
