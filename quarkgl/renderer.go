package quarkgl

import "github.com/go-gl/mathgl/mgl32"

// Renderer is a fixed-pipeline software renderer.
//
// Create it once and reuse it; the depth buffer is kept between frames.
type Renderer struct {
	Mode  RenderMode
	Depth bool

	depthBuf []float32
	stats    RenderStats
}

// RenderStats describes the last Render call.
type RenderStats struct {
	Meshes    int
	Triangles int
	Culled    int
}

// NewRenderer creates a renderer. With depth enabled a w*h depth buffer is allocated.
func NewRenderer(w, h int, depth bool) *Renderer {
	r := &Renderer{Mode: RenderSolidFlat}
	r.EnableDepth(depth, w, h)
	return r
}

func (r *Renderer) SetRenderMode(m RenderMode) { r.Mode = m }

// Stats returns counters for the last rendered frame.
func (r *Renderer) Stats() RenderStats { return r.stats }

func (r *Renderer) EnableDepth(on bool, w, h int) {
	r.Depth = on
	if !on || w <= 0 || h <= 0 {
		r.depthBuf = nil
		return
	}
	if cap(r.depthBuf) < w*h {
		r.depthBuf = make([]float32, w*h)
	} else {
		r.depthBuf = r.depthBuf[:w*h]
	}
}

func (r *Renderer) clearDepth() {
	for i := range r.depthBuf {
		r.depthBuf[i] = 1e9
	}
}

// Render draws every visible mesh node of s as seen from cam.
func (r *Renderer) Render(t Target, s *Scene, cam *Camera) {
	if r == nil || t == nil || s == nil || cam == nil {
		return
	}
	w, h := t.Size()
	if w <= 0 || h <= 0 {
		return
	}
	r.stats = RenderStats{}
	t.Clear(s.Background)

	if r.Depth {
		r.EnableDepth(true, w, h)
		r.clearDepth()
	}

	viewProj := cam.Projection().Mul4(cam.View())
	s.Root.Walk(func(n *Node, world mgl32.Mat4) bool {
		if n.Mesh != nil {
			r.renderMesh(t, w, h, viewProj, world, n.Mesh, s)
		}
		return true
	})
}

type screenPoint struct {
	x, y int
	z    float32
}

func (r *Renderer) renderMesh(t Target, w, h int, viewProj, model mgl32.Mat4, m *Mesh, s *Scene) {
	if len(m.Vertices) == 0 || len(m.Indices) < 3 {
		return
	}
	r.stats.Meshes++
	mvp := viewProj.Mul4(model)

	for i := 0; i+2 < len(m.Indices); i += 3 {
		var tri [3]Vertex
		var pts [3]screenPoint
		ok := true
		for k := 0; k < 3; k++ {
			vi := int(m.Indices[i+k])
			if vi >= len(m.Vertices) {
				ok = false
				break
			}
			tri[k] = m.Vertices[vi]
			clip := mvp.Mul4x1(tri[k].Pos.Vec4(1))
			// Trivial clip: drop triangles that reach behind the eye.
			if clip.W() <= 0 {
				ok = false
				break
			}
			pts[k] = toScreen(clip, w, h)
		}
		if !ok {
			r.stats.Culled++
			continue
		}
		r.stats.Triangles++

		base := m.Material.BaseColor
		n := triangleNormal(
			transformPoint(model, tri[0].Pos),
			transformPoint(model, tri[1].Pos),
			transformPoint(model, tri[2].Pos),
		)
		shade := s.Intensity(n)
		base = base.MulScalar(shade)

		switch r.Mode {
		case RenderWireframe:
			r.drawLine(t, pts[0], pts[1], base)
			r.drawLine(t, pts[1], pts[2], base)
			r.drawLine(t, pts[2], pts[0], base)
		case RenderSolidVertexColor:
			cols := [3]Color{
				tri[0].Color.MulScalar(shade),
				tri[1].Color.MulScalar(shade),
				tri[2].Color.MulScalar(shade),
			}
			r.fillTriangle(t, w, h, pts, cols)
		default:
			r.fillTriangle(t, w, h, pts, [3]Color{base, base, base})
		}
	}
}

func toScreen(clip mgl32.Vec4, w, h int) screenPoint {
	inv := 1 / clip.W()
	nx, ny, nz := clip.X()*inv, clip.Y()*inv, clip.Z()*inv
	sx := (nx*0.5 + 0.5) * float32(w-1)
	sy := (1 - (ny*0.5 + 0.5)) * float32(h-1)
	return screenPoint{x: int(sx + 0.5), y: int(sy + 0.5), z: nz}
}

func (r *Renderer) depthTest(w, x, y int, z float32) bool {
	if !r.Depth || r.depthBuf == nil {
		return true
	}
	idx := y*w + x
	if idx < 0 || idx >= len(r.depthBuf) {
		return false
	}
	// NDC z is in [-1,1]; map to [0,1].
	d := clamp01(z*0.5 + 0.5)
	if d >= r.depthBuf[idx] {
		return false
	}
	r.depthBuf[idx] = d
	return true
}

func (r *Renderer) drawLine(t Target, a, b screenPoint, c Color) {
	x0, y0, x1, y1 := a.x, a.y, b.x, b.y
	dx := absInt(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -absInt(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		t.SetPixel(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// fillTriangle rasterizes with barycentric edge functions. Both windings are
// accepted; hidden surfaces are resolved by the depth buffer.
func (r *Renderer) fillTriangle(t Target, w, h int, p [3]screenPoint, c [3]Color) {
	minX := max(min(p[0].x, p[1].x, p[2].x), 0)
	maxX := min(max(p[0].x, p[1].x, p[2].x), w-1)
	minY := max(min(p[0].y, p[1].y, p[2].y), 0)
	maxY := min(max(p[0].y, p[1].y, p[2].y), h-1)
	if minX > maxX || minY > maxY {
		return
	}

	area := edgeFn(p[0], p[1], p[2].x, p[2].y)
	if area == 0 {
		return
	}
	sign := 1
	if area < 0 {
		sign = -1
	}
	invArea := 1 / float32(area*sign)
	flat := c[0] == c[1] && c[1] == c[2]

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			w0 := edgeFn(p[1], p[2], x, y) * sign
			w1 := edgeFn(p[2], p[0], x, y) * sign
			w2 := edgeFn(p[0], p[1], x, y) * sign
			if (w0 | w1 | w2) < 0 {
				continue
			}
			a0 := float32(w0) * invArea
			a1 := float32(w1) * invArea
			a2 := float32(w2) * invArea
			if !r.depthTest(w, x, y, a0*p[0].z+a1*p[1].z+a2*p[2].z) {
				continue
			}
			if flat {
				t.SetPixel(x, y, c[0])
				continue
			}
			t.SetPixel(x, y, Color{
				R: mixChannel(a0, a1, a2, c[0].R, c[1].R, c[2].R),
				G: mixChannel(a0, a1, a2, c[0].G, c[1].G, c[2].G),
				B: mixChannel(a0, a1, a2, c[0].B, c[1].B, c[2].B),
				A: 0xFF,
			})
		}
	}
}

func mixChannel(a0, a1, a2 float32, c0, c1, c2 uint8) uint8 {
	v := a0*float32(c0) + a1*float32(c1) + a2*float32(c2)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func edgeFn(a, b screenPoint, x, y int) int {
	return (x-a.x)*(b.y-a.y) - (y-a.y)*(b.x-a.x)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
