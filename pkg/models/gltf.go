package models

import (
	"fmt"
	"image"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/taigrr/lumen/pkg/math3d"
	"github.com/taigrr/lumen/pkg/render"
)

// GLTFLoader loads GLTF/GLB files into Mesh format.
type GLTFLoader struct {
	// Options
	CalculateNormals bool
	SmoothNormals    bool
}

// NewGLTFLoader creates a new GLTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{
		CalculateNormals: true,
		SmoothNormals:    true,
	}
}

// LoadGLB loads a binary GLTF (.glb) file.
func LoadGLB(path string) (*Mesh, error) {
	loader := NewGLTFLoader()
	return loader.Load(path)
}

// Load loads a GLTF or GLB file and returns a Mesh. Every triangle
// primitive of every mesh in the document is merged into one Mesh.
// Texture coordinates keep glTF's top-left origin.
func (l *GLTFLoader) Load(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	return l.fromDocument(doc, filepath.Base(path))
}

func (l *GLTFLoader) fromDocument(doc *gltf.Document, name string) (*Mesh, error) {
	mesh := NewMesh(name)

	allNormals := true
	for _, m := range doc.Meshes {
		hasNormals, err := l.processMesh(doc, m, mesh)
		if err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", m.Name, err)
		}
		allNormals = allNormals && hasNormals
	}

	if l.CalculateNormals && !allNormals {
		if l.SmoothNormals {
			mesh.CalculateSmoothNormals()
		} else {
			mesh.CalculateNormals()
		}
	}

	mesh.index()
	mesh.CalculateBounds()

	return mesh, nil
}

// processMesh appends the triangle primitives of m to mesh. It reports
// whether all of them carried normals.
func (l *GLTFLoader) processMesh(doc *gltf.Document, m *gltf.Mesh, mesh *Mesh) (bool, error) {
	allNormals := true
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			// Skip non-triangle primitives (lines, points, etc)
			continue
		}

		// Get position accessor
		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}

		positions, err := readVec3Accessor(doc, posIdx, modeler.ReadPosition)
		if err != nil {
			return false, fmt.Errorf("read positions: %w", err)
		}

		// Get normals if available
		var normals []math3d.Vec3
		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, err = readVec3Accessor(doc, normIdx, modeler.ReadNormal)
			if err != nil {
				return false, fmt.Errorf("read normals: %w", err)
			}
		}
		if len(normals) < len(positions) {
			allNormals = false
		}

		// Get UVs if available
		var uvs []math3d.Vec2
		if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			uvs, err = readVec2Accessor(doc, uvIdx)
			if err != nil {
				return false, fmt.Errorf("read uvs: %w", err)
			}
		}

		// glTF attributes are per vertex, so one index addresses all three
		// arrays; keep them aligned by padding the shorter ones
		base := len(mesh.Positions)
		mesh.Positions = append(mesh.Positions, positions...)
		for i := range positions {
			var n math3d.Vec3
			if i < len(normals) {
				n = normals[i]
			}
			var uv math3d.Vec2
			if i < len(uvs) {
				uv = uvs[i]
			}
			mesh.Normals = append(mesh.Normals, n)
			mesh.TexCoords = append(mesh.TexCoords, uv)
		}

		corner := func(i int) Corner {
			return Corner{P: base + i, T: base + i, N: base + i}
		}

		var indices []int
		if prim.Indices != nil {
			indices, err = readIndices(doc, *prim.Indices)
			if err != nil {
				return false, fmt.Errorf("read indices: %w", err)
			}
		} else {
			// No indices, assume sequential triangles
			indices = make([]int, len(positions))
			for i := range indices {
				indices[i] = i
			}
		}

		for i := 0; i+2 < len(indices); i += 3 {
			for _, idx := range indices[i : i+3] {
				if idx < 0 || idx >= len(positions) {
					return false, fmt.Errorf("index %d: %w", idx, ErrIndexRange)
				}
			}
			mesh.Faces = append(mesh.Faces, Face{
				corner(indices[i]), corner(indices[i+1]), corner(indices[i+2]),
			})
		}
	}

	return allNormals, nil
}

// vec3Reader is the shape of modeler.ReadPosition and modeler.ReadNormal.
type vec3Reader func(*gltf.Document, *gltf.Accessor, [][3]float32) ([][3]float32, error)

// readVec3Accessor reads Vec3 data from a GLTF accessor.
func readVec3Accessor(doc *gltf.Document, accessorIdx int, read vec3Reader) ([]math3d.Vec3, error) {
	accessor, err := checkAccessor(doc, accessorIdx)
	if err != nil {
		return nil, err
	}

	floats, err := read(doc, accessor, nil)
	if err != nil {
		return nil, err
	}

	result := make([]math3d.Vec3, len(floats))
	for i, f := range floats {
		result[i] = math3d.V3(f[0], f[1], f[2])
	}

	return result, nil
}

// readVec2Accessor reads texture coordinates from a GLTF accessor.
func readVec2Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec2, error) {
	accessor, err := checkAccessor(doc, accessorIdx)
	if err != nil {
		return nil, err
	}

	floats, err := modeler.ReadTextureCoord(doc, accessor, nil)
	if err != nil {
		return nil, err
	}

	result := make([]math3d.Vec2, len(floats))
	for i, f := range floats {
		result[i] = math3d.V2(f[0], f[1])
	}

	return result, nil
}

// readIndices reads index data from a GLTF accessor.
func readIndices(doc *gltf.Document, accessorIdx int) ([]int, error) {
	accessor, err := checkAccessor(doc, accessorIdx)
	if err != nil {
		return nil, err
	}

	raw, err := modeler.ReadIndices(doc, accessor, nil)
	if err != nil {
		return nil, err
	}

	result := make([]int, len(raw))
	for i, x := range raw {
		result[i] = int(x)
	}
	return result, nil
}

// checkAccessor verifies that every element of the accessor lies inside its
// buffer view and that the view lies inside its buffer. The modeler readers
// slice the buffer without checking.
func checkAccessor(doc *gltf.Document, accessorIdx int) (*gltf.Accessor, error) {
	if accessorIdx < 0 || accessorIdx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d: %w", accessorIdx, ErrIndexRange)
	}
	accessor := doc.Accessors[accessorIdx]
	if accessor.BufferView == nil {
		return nil, fmt.Errorf("accessor %d has no buffer view", accessorIdx)
	}
	if *accessor.BufferView < 0 || *accessor.BufferView >= len(doc.BufferViews) {
		return nil, fmt.Errorf("buffer view %d: %w", *accessor.BufferView, ErrIndexRange)
	}

	view := doc.BufferViews[*accessor.BufferView]
	if view.Buffer < 0 || view.Buffer >= len(doc.Buffers) {
		return nil, fmt.Errorf("buffer %d: %w", view.Buffer, ErrIndexRange)
	}
	data := doc.Buffers[view.Buffer].Data
	if data == nil {
		return nil, fmt.Errorf("buffer has no data")
	}
	if end := view.ByteOffset + view.ByteLength; view.ByteOffset < 0 || end > len(data) {
		return nil, fmt.Errorf("buffer view reads bytes [%d, %d) of a %d byte buffer", view.ByteOffset, end, len(data))
	}

	if accessor.Count == 0 {
		return accessor, nil
	}
	size := accessor.ComponentType.ByteSize() * accessor.Type.Components()
	stride := view.ByteStride
	if stride == 0 {
		stride = size
	}
	if end := accessor.ByteOffset + (accessor.Count-1)*stride + size; end > view.ByteLength {
		return nil, fmt.Errorf("accessor %d reads bytes [%d, %d) of a %d byte view", accessorIdx, accessor.ByteOffset, end, view.ByteLength)
	}
	return accessor, nil
}

// LoadGLTFWithTextures loads a GLTF file and extracts its encoded images.
// Returns the mesh and a map of image index to image file bytes.
func LoadGLTFWithTextures(path string) (*Mesh, map[int][]byte, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open gltf: %w", err)
	}

	mesh, err := NewGLTFLoader().fromDocument(doc, filepath.Base(path))
	if err != nil {
		return nil, nil, err
	}

	textures := make(map[int][]byte)
	for i, img := range doc.Images {
		switch {
		case img.BufferView != nil:
			bv := doc.BufferViews[*img.BufferView]
			buf := doc.Buffers[bv.Buffer]
			if buf.Data != nil && bv.ByteOffset+bv.ByteLength <= len(buf.Data) {
				textures[i] = buf.Data[bv.ByteOffset : bv.ByteOffset+bv.ByteLength]
			}
		case img.URI != "" && !strings.HasPrefix(img.URI, "data:"):
			// External texture file
			data, err := os.ReadFile(filepath.Join(filepath.Dir(path), img.URI))
			if err == nil {
				textures[i] = data
			}
		}
	}

	return mesh, textures, nil
}

// LoadGLBWithTexture loads a GLB file and returns the mesh plus the first
// decodable embedded image, which is nil if there is none.
func LoadGLBWithTexture(path string) (*Mesh, image.Image, error) {
	mesh, textures, err := LoadGLTFWithTextures(path)
	if err != nil {
		return nil, nil, err
	}

	for _, i := range slices.Sorted(maps.Keys(textures)) {
		data := textures[i]
		if len(data) == 0 {
			continue
		}
		if img, err := render.DecodeImage(data, ""); err == nil {
			return mesh, img, nil
		}
	}

	return mesh, nil, nil
}
