package renderable

import (
	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Geometry is CPU-side vertex and index data ready for upload.
type Geometry struct {
	Vertices []Vertex
	Indices  []uint32
}

// VertexBytes returns a byte view of the vertices.
func (g Geometry) VertexBytes() []byte {
	return common.SliceToBytes(g.Vertices)
}

// IndexBytes returns a byte view of the indices.
func (g Geometry) IndexBytes() []byte {
	return common.SliceToBytes(g.Indices)
}

// appendQuad appends four corners (counter-clockwise) and the two triangles joining them.
func (g *Geometry) appendQuad(corners [4]mgl32.Vec3, uvs [4][2]float32, color [4]float32) {
	base := uint32(len(g.Vertices))
	for i, c := range corners {
		g.Vertices = append(g.Vertices, Vertex{Position: c, TexCoords: uvs[i], Color: color})
	}
	g.Indices = append(g.Indices, base, base+1, base+2, base, base+2, base+3)
}

var quadUVs = [4][2]float32{{0, 1}, {1, 1}, {1, 0}, {0, 0}}

// GridGeometry builds a ground grid on the XZ plane out of thin quads, one per line.
//
// Parameters:
//   - halfLines: number of lines on each side of the origin along each axis
//   - spacing: distance between lines
//   - thickness: line width
//   - color: line color
//
// Returns:
//   - Geometry: (2*halfLines+1)*2 quads
func GridGeometry(halfLines int, spacing, thickness float32, color [4]float32) Geometry {
	var g Geometry
	extent := float32(halfLines) * spacing
	t := thickness / 2
	for i := -halfLines; i <= halfLines; i++ {
		p := float32(i) * spacing
		// line parallel to X
		g.appendQuad([4]mgl32.Vec3{
			{-extent, 0, p + t}, {extent, 0, p + t}, {extent, 0, p - t}, {-extent, 0, p - t},
		}, quadUVs, color)
		// line parallel to Z
		g.appendQuad([4]mgl32.Vec3{
			{p - t, 0, extent}, {p + t, 0, extent}, {p + t, 0, -extent}, {p - t, 0, -extent},
		}, quadUVs, color)
	}
	return g
}

// CubeGeometry builds an axis-aligned cube centered on the origin with per-face UVs.
//
// Parameters:
//   - size: edge length
//   - color: vertex color
//
// Returns:
//   - Geometry: 24 vertices and 36 indices
func CubeGeometry(size float32, color [4]float32) Geometry {
	h := size / 2
	faces := [6][4]mgl32.Vec3{
		{{-h, -h, h}, {h, -h, h}, {h, h, h}, {-h, h, h}},     // +Z
		{{h, -h, -h}, {-h, -h, -h}, {-h, h, -h}, {h, h, -h}}, // -Z
		{{h, -h, h}, {h, -h, -h}, {h, h, -h}, {h, h, h}},     // +X
		{{-h, -h, -h}, {-h, -h, h}, {-h, h, h}, {-h, h, -h}}, // -X
		{{-h, h, h}, {h, h, h}, {h, h, -h}, {-h, h, -h}},     // +Y
		{{-h, -h, -h}, {h, -h, -h}, {h, -h, h}, {-h, -h, h}}, // -Y
	}
	var g Geometry
	for _, f := range faces {
		g.appendQuad(f, quadUVs, color)
	}
	return g
}

// LandscapeGeometry builds a height-mapped terrain patch centered on the origin.
// UVs span [0, 1] across the whole patch.
//
// Parameters:
//   - cellsX, cellsZ: number of cells along each axis
//   - cellSize: edge length of a cell
//   - height: returns the surface height at a world XZ position
//   - color: vertex color
//
// Returns:
//   - Geometry: (cellsX+1)*(cellsZ+1) vertices and cellsX*cellsZ*6 indices
func LandscapeGeometry(cellsX, cellsZ int, cellSize float32, height func(x, z float32) float32, color [4]float32) Geometry {
	cellsX, cellsZ = max(cellsX, 1), max(cellsZ, 1)
	if height == nil {
		height = func(x, z float32) float32 { return 0 }
	}

	g := Geometry{
		Vertices: make([]Vertex, 0, (cellsX+1)*(cellsZ+1)),
		Indices:  make([]uint32, 0, cellsX*cellsZ*6),
	}
	originX := -float32(cellsX) * cellSize / 2
	originZ := -float32(cellsZ) * cellSize / 2
	for z := 0; z <= cellsZ; z++ {
		for x := 0; x <= cellsX; x++ {
			px := originX + float32(x)*cellSize
			pz := originZ + float32(z)*cellSize
			g.Vertices = append(g.Vertices, Vertex{
				Position:  [3]float32{px, height(px, pz), pz},
				TexCoords: [2]float32{float32(x) / float32(cellsX), float32(z) / float32(cellsZ)},
				Color:     color,
			})
		}
	}

	row := uint32(cellsX + 1)
	for z := range uint32(cellsZ) {
		for x := range uint32(cellsX) {
			i := z*row + x
			g.Indices = append(g.Indices, i, i+row, i+1, i+1, i+row, i+row+1)
		}
	}
	return g
}

// QuadGeometry builds a single upward-facing quad on the XZ plane centered on the origin.
func QuadGeometry(width, depth float32, color [4]float32) Geometry {
	w, d := width/2, depth/2
	var g Geometry
	g.appendQuad([4]mgl32.Vec3{{-w, 0, d}, {w, 0, d}, {w, 0, -d}, {-w, 0, -d}}, quadUVs, color)
	return g
}
