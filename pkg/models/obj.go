package models

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chewxy/math32"

	"github.com/taigrr/lumen/pkg/math3d"
)

var (
	ErrMalformedToken = errors.New("malformed number")
	ErrMissingToken   = errors.New("missing value")
	ErrShortFace      = errors.New("face needs at least 3 corners")
	ErrIndexRange     = errors.New("index out of range")
)

// ParseError reports the first problem found in an OBJ stream.
type ParseError struct {
	Line  int    // 1-based line number
	Token string // offending token, empty when a token is missing
	Err   error  // one of the Err* sentinels
}

func (e *ParseError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("obj line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("obj line %d: %v %q", e.Line, e.Err, e.Token)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// LoadOBJ reads a Wavefront OBJ file.
func LoadOBJ(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj: %w", err)
	}
	defer f.Close()

	m, err := ParseOBJ(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	m.Name = filepath.Base(path)
	return m, nil
}

// maxLineSize bounds a single OBJ line. Large n-gons can exceed the
// scanner's 64 KiB default.
const maxLineSize = 64 << 20

// ParseOBJ reads OBJ geometry: v, vn, vt and f lines. Comments, blank
// lines and other statements (o, g, s, usemtl, mtllib, ...) are skipped.
// Texture v coordinates are flipped to a top-left origin and folded into
// [0, 1). Face indices are 1-based, or negative to count back from the
// most recent element.
func ParseOBJ(r io.Reader) (*Mesh, error) {
	p := objParser{mesh: NewMesh("")}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		p.line++
		if err := p.parseLine(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read obj: %w", err)
	}

	p.mesh.index()
	p.mesh.CalculateBounds()
	return p.mesh, nil
}

type objParser struct {
	mesh *Mesh
	line int
}

func (p *objParser) errorf(token string, err error) error {
	return &ParseError{Line: p.line, Token: token, Err: err}
}

func (p *objParser) parseLine(line string) error {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	val := strings.Fields(line)
	if len(val) == 0 {
		return nil
	}

	m := p.mesh
	switch val[0] {
	case "v":
		v, err := p.floats(val[1:], 3, 3)
		if err != nil {
			return err
		}
		m.Positions = append(m.Positions, math3d.V3(v[0], v[1], v[2]))
	case "vn":
		v, err := p.floats(val[1:], 3, 3)
		if err != nil {
			return err
		}
		m.Normals = append(m.Normals, math3d.V3(v[0], v[1], v[2]))
	case "vt":
		v, err := p.floats(val[1:], 1, 2)
		if err != nil {
			return err
		}
		m.TexCoords = append(m.TexCoords, math3d.V2(v[0], fold(1-v[1])))
	case "f":
		if len(val) < 4 {
			return p.errorf(strings.Join(val, " "), ErrShortFace)
		}
		face := make(Face, 0, len(val)-1)
		for _, group := range val[1:] {
			c, err := p.corner(group)
			if err != nil {
				return err
			}
			face = append(face, c)
		}
		m.Faces = append(m.Faces, face)
	}
	return nil
}

// floats parses up to max tokens and requires at least min of them.
// Missing components are zero; extra tokens (such as a w component) are
// ignored.
func (p *objParser) floats(tokens []string, min, max int) ([3]float32, error) {
	var out [3]float32
	if len(tokens) < min {
		return out, p.errorf("", ErrMissingToken)
	}
	for i := range max {
		if i >= len(tokens) {
			break
		}
		f, err := strconv.ParseFloat(tokens[i], 32)
		if err != nil {
			return out, p.errorf(tokens[i], ErrMalformedToken)
		}
		out[i] = float32(f)
	}
	return out, nil
}

// corner parses a p, p/t, p//n or p/t/n group.
func (p *objParser) corner(group string) (Corner, error) {
	idx := strings.Split(group, "/")
	if len(idx) > 3 {
		return Corner{}, p.errorf(group, ErrMalformedToken)
	}

	c := Corner{T: -1, N: -1}
	var err error
	if c.P, err = p.index(idx[0], len(p.mesh.Positions)); err != nil {
		return Corner{}, err
	}
	if len(idx) > 1 && idx[1] != "" {
		if c.T, err = p.index(idx[1], len(p.mesh.TexCoords)); err != nil {
			return Corner{}, err
		}
	}
	if len(idx) > 2 && idx[2] != "" {
		if c.N, err = p.index(idx[2], len(p.mesh.Normals)); err != nil {
			return Corner{}, err
		}
	}
	return c, nil
}

// index converts a 1-based or negative relative index to 0-based and
// checks it against the n elements defined so far.
func (p *objParser) index(token string, n int) (int, error) {
	if token == "" {
		return 0, p.errorf("", ErrMissingToken)
	}
	i, err := strconv.Atoi(token)
	if err != nil {
		return 0, p.errorf(token, ErrMalformedToken)
	}
	switch {
	case i > 0:
		i--
	case i < 0:
		i += n
	default:
		return 0, p.errorf(token, ErrIndexRange)
	}
	if i < 0 || i >= n {
		return 0, p.errorf(token, ErrIndexRange)
	}
	return i, nil
}

// fold wraps x into [0, 1).
func fold(x float32) float32 {
	x -= math32.Floor(x)
	if x >= 1 {
		return 0
	}
	return x
}
