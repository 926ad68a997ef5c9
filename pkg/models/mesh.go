// Package models provides polygon mesh loading and representation for lumen.
package models

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/taigrr/lumen/pkg/math3d"
)

// Corner is one vertex of a face: 0-based indices into the mesh's
// attribute arrays. T and N are -1 when the attribute is absent.
type Corner struct {
	P, T, N int
}

// Face is a convex polygon with at least three corners.
type Face []Corner

// Mesh holds shared attribute arrays and polygon faces referencing them.
// It is not modified after loading.
type Mesh struct {
	Name      string
	Positions []math3d.Vec3
	Normals   []math3d.Vec3
	TexCoords []math3d.Vec2
	Faces     []Face

	// Bounding box (calculated on load)
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3

	tris []triRef
}

// triRef addresses triangle j of the fan over face f: corners 0, j+1, j+2.
type triRef struct {
	face, j int
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{Name: name}
}

// index builds the fan triangulation table. Call after Faces changes.
func (m *Mesh) index() {
	n := 0
	for _, f := range m.Faces {
		n += len(f) - 2
	}
	m.tris = make([]triRef, 0, n)
	for fi, f := range m.Faces {
		for j := 0; j+2 < len(f); j++ {
			m.tris = append(m.tris, triRef{fi, j})
		}
	}
}

// TriangleCount returns the number of triangles after fan triangulation.
func (m *Mesh) TriangleCount() int {
	return len(m.tris)
}

// VertexCount returns the number of positions.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// Triangle returns the corners of triangle i: (v0, vj+1, vj+2) of its face.
func (m *Mesh) Triangle(i int) [3]Corner {
	t := m.tris[i]
	f := m.Faces[t.face]
	return [3]Corner{f[0], f[t.j+1], f[t.j+2]}
}

// GetCorner returns the position, normal and texture coordinates of corner
// k of triangle tri. Absent attributes are zero.
// Implements render.MeshRenderer interface.
func (m *Mesh) GetCorner(tri, k int) (pos, normal math3d.Vec3, uv math3d.Vec2) {
	t := m.tris[tri]
	f := m.Faces[t.face]
	c := f[0]
	if k > 0 {
		c = f[t.j+k]
	}
	pos = m.Positions[c.P]
	if c.N >= 0 {
		normal = m.Normals[c.N]
	}
	if c.T >= 0 {
		uv = m.TexCoords[c.T]
	}
	return pos, normal, uv
}

// HasNormals reports whether every corner references a normal.
func (m *Mesh) HasNormals() bool {
	for _, f := range m.Faces {
		for _, c := range f {
			if c.N < 0 {
				return false
			}
		}
	}
	return len(m.Faces) > 0
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	if len(m.Positions) == 0 {
		return
	}

	m.BoundsMin = m.Positions[0]
	m.BoundsMax = m.Positions[0]

	for _, p := range m.Positions[1:] {
		m.BoundsMin = m.BoundsMin.Min(p)
		m.BoundsMax = m.BoundsMax.Max(p)
	}
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// faceNormal returns the unnormalized normal of the first fan triangle.
func (m *Mesh) faceNormal(f Face) math3d.Vec3 {
	v0 := m.Positions[f[0].P]
	v1 := m.Positions[f[1].P]
	v2 := m.Positions[f[2].P]
	return v1.Sub(v0).Cross(v2.Sub(v0))
}

// CalculateNormals assigns each face its own normal (flat shading).
// Existing normals are replaced.
func (m *Mesh) CalculateNormals() {
	m.Normals = make([]math3d.Vec3, len(m.Faces))
	for i, f := range m.Faces {
		m.Normals[i] = m.faceNormal(f).Normalize()
		for k := range f {
			f[k].N = i
		}
	}
}

// CalculateSmoothNormals averages the normals of the faces sharing each
// position. Existing normals are replaced.
func (m *Mesh) CalculateSmoothNormals() {
	m.Normals = make([]math3d.Vec3, len(m.Positions))

	// Accumulate area-weighted face normals per position
	for _, f := range m.Faces {
		n := m.faceNormal(f)
		for _, c := range f {
			m.Normals[c.P] = m.Normals[c.P].Add(n)
		}
	}

	for i := range m.Normals {
		m.Normals[i] = m.Normals[i].Normalize()
	}
	for _, f := range m.Faces {
		for k := range f {
			f[k].N = f[k].P
		}
	}
}

// ErrUnknownFormat is returned by Load for unsupported file extensions.
var ErrUnknownFormat = errors.New("unknown mesh format")

// Load reads a mesh file, choosing the parser by extension: .obj, .glb or
// .gltf.
func Load(path string) (*Mesh, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		return LoadOBJ(path)
	case ".glb", ".gltf":
		return LoadGLB(path)
	default:
		return nil, fmt.Errorf("load %s: %w", filepath.Base(path), ErrUnknownFormat)
	}
}
