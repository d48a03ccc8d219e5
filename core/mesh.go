package core

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// degenerateCross is the cross-product magnitude at or below which a
// triangle is treated as having no area.
const degenerateCross = 1e-12

// Triangle is three points in a common space, wound v0→v1→v2.
type Triangle struct {
	V0, V1, V2 mgl64.Vec3
}

func (t Triangle) cross() mgl64.Vec3 {
	return t.V1.Sub(t.V0).Cross(t.V2.Sub(t.V0))
}

// Degenerate reports whether the triangle has (numerically) zero area.
func (t Triangle) Degenerate() bool {
	l := t.cross().Len()
	return !(l > degenerateCross) || math.IsInf(l, 0)
}

// Area returns the triangle area, 0 for degenerate triangles.
func (t Triangle) Area() float64 {
	if t.Degenerate() {
		return 0
	}
	return 0.5 * t.cross().Len()
}

// Normal returns the unit normal given by the right-hand rule, or the zero
// vector for degenerate triangles.
func (t Triangle) Normal() mgl64.Vec3 {
	c := t.cross()
	l := c.Len()
	if !(l > degenerateCross) || math.IsInf(l, 0) {
		return mgl64.Vec3{}
	}
	return c.Mul(1 / l)
}

// Centroid returns the mean of the three vertices.
func (t Triangle) Centroid() mgl64.Vec3 {
	return t.V0.Add(t.V1).Add(t.V2).Mul(1.0 / 3.0)
}

// TriangleSource is a read-only, bounds-checked view of a triangle mesh.
type TriangleSource interface {
	TriangleCount() int
	Triangle(i int) Triangle
}

// TriangleList is a materialized slice of triangles.
type TriangleList []Triangle

func (l TriangleList) TriangleCount() int { return len(l) }

// Triangle returns the i-th triangle, or a zero (degenerate) triangle when
// i is out of range.
func (l TriangleList) Triangle(i int) Triangle {
	if i < 0 || i >= len(l) {
		return Triangle{}
	}
	return l[i]
}

// IndexedMesh views flat vertex/index buffers as they come out of a model
// loader. Vertices holds xyz triples. When Indices is empty the vertices
// are read as consecutive, non-indexed triangles.
type IndexedMesh struct {
	Vertices []float32
	Indices  []uint32
}

// VertexCount returns the number of complete vertices.
func (m *IndexedMesh) VertexCount() int {
	if m == nil {
		return 0
	}
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of complete triangles.
func (m *IndexedMesh) TriangleCount() int {
	if m == nil {
		return 0
	}
	if len(m.Indices) == 0 {
		return m.VertexCount() / 3
	}
	return len(m.Indices) / 3
}

// Triangle returns the i-th triangle. Out-of-range triangle or vertex
// indices yield a degenerate zero triangle instead of panicking.
func (m *IndexedMesh) Triangle(i int) Triangle {
	if m == nil || i < 0 || i >= m.TriangleCount() {
		return Triangle{}
	}
	var idx [3]int
	if len(m.Indices) == 0 {
		idx = [3]int{3 * i, 3*i + 1, 3*i + 2}
	} else {
		idx = [3]int{int(m.Indices[3*i]), int(m.Indices[3*i+1]), int(m.Indices[3*i+2])}
	}
	n := m.VertexCount()
	for _, v := range idx {
		if v >= n {
			return Triangle{}
		}
	}
	return Triangle{V0: m.vertex(idx[0]), V1: m.vertex(idx[1]), V2: m.vertex(idx[2])}
}

func (m *IndexedMesh) vertex(i int) mgl64.Vec3 {
	return mgl64.Vec3{
		float64(m.Vertices[3*i]),
		float64(m.Vertices[3*i+1]),
		float64(m.Vertices[3*i+2]),
	}
}

// Validate reports buffer shapes that would silently drop geometry.
func (m *IndexedMesh) Validate() error {
	if m == nil {
		return fmt.Errorf("mesh is nil")
	}
	if len(m.Vertices)%3 != 0 {
		return fmt.Errorf("vertex buffer length %d is not a multiple of 3", len(m.Vertices))
	}
	if len(m.Indices) == 0 {
		if m.VertexCount()%3 != 0 {
			return fmt.Errorf("non-indexed mesh has %d vertices, not a multiple of 3", m.VertexCount())
		}
		return nil
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("index buffer length %d is not a multiple of 3", len(m.Indices))
	}
	n := m.VertexCount()
	for i, idx := range m.Indices {
		if int(idx) >= n {
			return fmt.Errorf("index %d at position %d out of range (%d vertices)", idx, i, n)
		}
	}
	return nil
}

// TransformedSource applies a transform to every triangle of Source on
// access. The source buffers are never modified.
type TransformedSource struct {
	Source    TriangleSource
	Transform Transform
}

func (s TransformedSource) TriangleCount() int {
	if s.Source == nil {
		return 0
	}
	return s.Source.TriangleCount()
}

func (s TransformedSource) Triangle(i int) Triangle {
	if s.Source == nil {
		return Triangle{}
	}
	t := s.Source.Triangle(i)
	return Triangle{
		V0: s.Transform.TransformPoint(t.V0),
		V1: s.Transform.TransformPoint(t.V1),
		V2: s.Transform.TransformPoint(t.V2),
	}
}

// Bake materializes a source into a TriangleList, typically once per frame
// so the analyzer passes do not repeat the transform.
func Bake(src TriangleSource) TriangleList {
	if src == nil {
		return nil
	}
	if l, ok := src.(TriangleList); ok {
		return l
	}
	n := src.TriangleCount()
	out := make(TriangleList, n)
	for i := 0; i < n; i++ {
		out[i] = src.Triangle(i)
	}
	return out
}

// Box returns a closed, outward-wound box mesh with the given edge lengths
// centred on the origin.
func Box(sizeX, sizeY, sizeZ float64) *IndexedMesh {
	hx, hy, hz := float32(sizeX/2), float32(sizeY/2), float32(sizeZ/2)
	verts := make([]float32, 0, 8*3)
	for i := 0; i < 8; i++ {
		x, y, z := -hx, -hy, -hz
		if i&1 != 0 {
			x = hx
		}
		if i&2 != 0 {
			y = hy
		}
		if i&4 != 0 {
			z = hz
		}
		verts = append(verts, x, y, z)
	}
	quads := [6][4]uint32{
		{1, 3, 7, 5}, // +X
		{0, 4, 6, 2}, // -X
		{2, 6, 7, 3}, // +Y
		{0, 1, 5, 4}, // -Y
		{4, 5, 7, 6}, // +Z
		{0, 2, 3, 1}, // -Z
	}
	idx := make([]uint32, 0, 36)
	for _, q := range quads {
		idx = append(idx, q[0], q[1], q[2], q[0], q[2], q[3])
	}
	return &IndexedMesh{Vertices: verts, Indices: idx}
}

// UVSphere returns a closed, outward-wound latitude/longitude sphere. The
// pole rows produce degenerate triangles, which every analyzer pass skips.
func UVSphere(radius float64, stacks, slices int) *IndexedMesh {
	if stacks < 2 {
		stacks = 2
	}
	if slices < 3 {
		slices = 3
	}
	verts := make([]float32, 0, (stacks+1)*(slices+1)*3)
	for i := 0; i <= stacks; i++ {
		theta := math.Pi * float64(i) / float64(stacks)
		for j := 0; j <= slices; j++ {
			phi := 2 * math.Pi * float64(j) / float64(slices)
			verts = append(verts,
				float32(radius*math.Sin(theta)*math.Cos(phi)),
				float32(radius*math.Sin(theta)*math.Sin(phi)),
				float32(radius*math.Cos(theta)),
			)
		}
	}
	row := uint32(slices + 1)
	idx := make([]uint32, 0, stacks*slices*6)
	for i := 0; i < stacks; i++ {
		for j := 0; j < slices; j++ {
			a := uint32(i)*row + uint32(j)
			b := a + row
			c := b + 1
			d := a + 1
			idx = append(idx, a, b, c, a, c, d)
		}
	}
	return &IndexedMesh{Vertices: verts, Indices: idx}
}
