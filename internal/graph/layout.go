package graph

import (
	"hash/fnv"
	"math"
)

// LayoutOptions configures the force-directed layout.
type LayoutOptions struct {
	Name       string
	Iterations int
	Width      float64
	Height     float64
}

// DefaultLayout mirrors the "cose" layout the original views used.
func DefaultLayout() LayoutOptions {
	return LayoutOptions{Name: "cose", Iterations: 200, Width: 1, Height: 1}
}

// ForceLayout positions nodes with a Fruchterman-Reingold simulation.
// Initial positions are derived from node ids, so the same element set
// always lays out the same way.
func ForceLayout(el Elements, opt LayoutOptions) map[string]Point {
	if opt.Iterations <= 0 {
		opt.Iterations = 200
	}
	if opt.Width <= 0 {
		opt.Width = 1
	}
	if opt.Height <= 0 {
		opt.Height = 1
	}

	n := len(el.Nodes)
	pos := make(map[string]Point, n)
	if n == 0 {
		return pos
	}
	for _, node := range el.Nodes {
		pos[node.ID] = seedPoint(node.ID, opt.Width, opt.Height)
	}
	if n == 1 {
		pos[el.Nodes[0].ID] = Point{X: opt.Width / 2, Y: opt.Height / 2}
		return pos
	}

	area := opt.Width * opt.Height
	k := math.Sqrt(area / float64(n))
	temp := opt.Width / 10

	for iter := 0; iter < opt.Iterations; iter++ {
		disp := make(map[string]Point, n)

		for i := 0; i < n; i++ {
			a := el.Nodes[i].ID
			for j := i + 1; j < n; j++ {
				b := el.Nodes[j].ID
				dx, dy, d := delta(pos[a], pos[b])
				f := k * k / d
				da, db := disp[a], disp[b]
				da.X += dx / d * f
				da.Y += dy / d * f
				db.X -= dx / d * f
				db.Y -= dy / d * f
				disp[a], disp[b] = da, db
			}
		}

		for _, e := range el.Edges {
			if e.Source == e.Target {
				continue
			}
			dx, dy, d := delta(pos[e.Source], pos[e.Target])
			f := d * d / k
			ds, dt := disp[e.Source], disp[e.Target]
			ds.X -= dx / d * f
			ds.Y -= dy / d * f
			dt.X += dx / d * f
			dt.Y += dy / d * f
			disp[e.Source], disp[e.Target] = ds, dt
		}

		for _, node := range el.Nodes {
			d := disp[node.ID]
			l := math.Hypot(d.X, d.Y)
			if l == 0 {
				continue
			}
			p := pos[node.ID]
			step := math.Min(l, temp)
			p.X = clamp(p.X+d.X/l*step, 0, opt.Width)
			p.Y = clamp(p.Y+d.Y/l*step, 0, opt.Height)
			pos[node.ID] = p
		}

		temp *= 0.97
	}
	return pos
}

// Bounds returns the bounding box of the positions.
func Bounds(pos map[string]Point) (lo, hi Point) {
	first := true
	for _, p := range pos {
		if first {
			lo, hi = p, p
			first = false
			continue
		}
		lo.X = math.Min(lo.X, p.X)
		lo.Y = math.Min(lo.Y, p.Y)
		hi.X = math.Max(hi.X, p.X)
		hi.Y = math.Max(hi.Y, p.Y)
	}
	return lo, hi
}

func delta(a, b Point) (dx, dy, d float64) {
	dx, dy = a.X-b.X, a.Y-b.Y
	d = math.Hypot(dx, dy)
	if d < 1e-6 {
		dx, dy, d = 1e-3, 1e-3, math.Sqrt2*1e-3
	}
	return dx, dy, d
}

func seedPoint(id string, w, h float64) Point {
	hs := fnv.New64a()
	hs.Write([]byte(id))
	sum := hs.Sum64()
	x := float64(sum&0xffff) / 0xffff
	y := float64((sum>>16)&0xffff) / 0xffff
	return Point{X: x * w, Y: y * h}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
