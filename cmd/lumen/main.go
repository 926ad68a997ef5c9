// lumen - software rasterizer for textured, normal-mapped meshes.
// Renders OBJ and glTF models to PNG files, the terminal or a window.
//
// Controls (terminal and window):
//
//	N           - Toggle normal mapping
//	D           - Toggle diffuse mapping
//	S           - Toggle specular mapping
//	F           - Toggle nearest/bilinear filtering
//	Left/Right  - Spin impulse
//	Space       - Pause/resume spin
//	Esc/Q       - Quit
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/taigrr/lumen/pkg/config"
	"github.com/taigrr/lumen/pkg/models"
	"github.com/taigrr/lumen/pkg/render"
	"github.com/taigrr/lumen/pkg/scene"
)

var (
	configPath   = flag.String("config", "", "Path to YAML scene file")
	outputPath   = flag.String("o", "", "Render to this PNG file instead of opening a viewer")
	frames       = flag.Int("frames", 1, "Number of frames to render with -o")
	width        = flag.Int("width", 640, "Canvas width in pixels (headless and window)")
	height       = flag.Int("height", 480, "Canvas height in pixels (headless and window)")
	diffusePath  = flag.String("diffuse", "", "Diffuse texture (PNG/JPG)")
	specularPath = flag.String("specular", "", "Specular texture (PNG/JPG)")
	normalPath   = flag.String("normal", "", "Tangent-space normal map (PNG/JPG)")
	filter       = flag.String("filter", "bilinear", "Texture filter: nearest or bilinear")
	autoFrame    = flag.Bool("auto", false, "Fit the model to the camera")
	window       = flag.Bool("window", false, "Open a desktop window instead of drawing in the terminal")
	verbose      = flag.Bool("v", false, "Debug logging")
)

var errNoModel = errors.New("no model given")

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "lumen - software rasterizer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: lumen [options] [model.obj|model.glb]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  N/D/S       - Toggle normal/diffuse/specular mapping\n")
		fmt.Fprintf(os.Stderr, "  F           - Toggle texture filtering\n")
		fmt.Fprintf(os.Stderr, "  Left/Right  - Spin impulse\n")
		fmt.Fprintf(os.Stderr, "  Space       - Pause spin\n")
		fmt.Fprintf(os.Stderr, "  Esc/Q       - Quit\n")
	}
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			return err
		}
	}
	if err := applyFlags(cfg); err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()})))

	if cfg.Model == "" {
		flag.Usage()
		return errNoModel
	}

	sc, err := buildScene(cfg)
	if err != nil {
		return err
	}

	switch {
	case cfg.Output.Path != "":
		return renderHeadless(sc, cfg)
	case *window:
		return runWindow(sc, cfg)
	default:
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runTerminal(ctx, sc)
	}
}

// applyFlags overrides cfg with the flags given on the command line.
func applyFlags(cfg *config.Config) error {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "o":
			cfg.Output.Path = *outputPath
		case "frames":
			cfg.Output.Frames = *frames
		case "width":
			cfg.Width = *width
		case "height":
			cfg.Height = *height
		case "diffuse":
			cfg.Textures.Diffuse = *diffusePath
		case "specular":
			cfg.Textures.Specular = *specularPath
		case "normal":
			cfg.Textures.Normal = *normalPath
		case "filter":
			cfg.Shading.Filter = strings.ToLower(*filter)
		case "auto":
			cfg.Camera.AutoFrame = *autoFrame
		case "v":
			if *verbose {
				cfg.Log.Level = "debug"
			}
		}
	})
	if flag.NArg() > 0 {
		cfg.Model = flag.Arg(0)
	}
	if cfg.Output.Frames < 1 {
		cfg.Output.Frames = 1
	}
	return cfg.Validate()
}

// buildScene loads the model and textures named by cfg.
func buildScene(cfg *config.Config) (*scene.Scene, error) {
	var (
		mesh     *models.Mesh
		embedded *render.Texture
		err      error
	)
	switch strings.ToLower(filepath.Ext(cfg.Model)) {
	case ".glb", ".gltf":
		m, img, err := models.LoadGLBWithTexture(cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("load model: %w", err)
		}
		mesh = m
		if img != nil {
			embedded = render.TextureFromImage(img)
			slog.Debug("using embedded texture", "width", embedded.Width, "height", embedded.Height)
		}
	default:
		mesh, err = models.Load(cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("load model: %w", err)
		}
	}

	if !mesh.HasNormals() {
		mesh.CalculateSmoothNormals()
		slog.Debug("generated smooth normals", "model", mesh.Name)
	}

	slog.Info("loaded mesh",
		"path", cfg.Model,
		"vertices", mesh.VertexCount(),
		"triangles", mesh.TriangleCount(),
		"size", mesh.Size())

	diffuse, err := loadTexture("diffuse", cfg.Textures.Diffuse)
	if err != nil {
		return nil, err
	}
	if diffuse == nil {
		diffuse = embedded
	}
	specular, err := loadTexture("specular", cfg.Textures.Specular)
	if err != nil {
		return nil, err
	}
	normal, err := loadTexture("normal", cfg.Textures.Normal)
	if err != nil {
		return nil, err
	}

	sc := scene.New(cfg.Width, cfg.Height, mesh, render.NewProgram(diffuse, specular, normal))
	cfg.Apply(sc)
	return sc, nil
}

// loadTexture returns nil for an empty path.
func loadTexture(kind, path string) (*render.Texture, error) {
	if path == "" {
		return nil, nil
	}
	tex, err := render.LoadTexture(path)
	if err != nil {
		return nil, fmt.Errorf("load %s texture: %w", kind, err)
	}
	slog.Debug("loaded texture", "kind", kind, "path", path, "width", tex.Width, "height", tex.Height)
	return tex, nil
}
