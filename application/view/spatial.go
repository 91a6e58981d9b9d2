// Package view computes what a client sees: spatial visibility against a
// viewport, temporal filtering against the time-travel cursor, and the
// orphan partition. Everything here is pure and performs no I/O.
package view

import (
	"nexusboard/domain/node"
)

// Canvas dimensions in canvas units.
const (
	CanvasWidth  float64 = 8400
	CanvasHeight float64 = 6400
)

// DefaultBuffer is the margin added on all four viewport sides so nodes do
// not pop in at the edges while panning.
const DefaultBuffer float64 = 100

// Zoom limits and step.
const (
	ZoomMin  float64 = 0.10
	ZoomMax  float64 = 3.0
	ZoomStep float64 = 0.10
)

// Viewport is the visible canvas rectangle in canvas units, i.e. screen
// coordinates already divided by zoom so comparisons are zoom-independent.
type Viewport struct {
	ScrollX float64
	ScrollY float64
	Width   float64
	Height  float64
}

// ViewportFromScreen converts screen-space scroll offsets and window size to
// a canvas-space viewport for the given zoom.
func ViewportFromScreen(scrollLeft, scrollTop, windowWidth, windowHeight, zoom float64) Viewport {
	if zoom <= 0 {
		zoom = 1
	}
	return Viewport{
		ScrollX: scrollLeft / zoom,
		ScrollY: scrollTop / zoom,
		Width:   windowWidth / zoom,
		Height:  windowHeight / zoom,
	}
}

// ClampZoom bounds z to the allowed zoom range.
func ClampZoom(z float64) float64 {
	if z < ZoomMin {
		return ZoomMin
	}
	if z > ZoomMax {
		return ZoomMax
	}
	return z
}

// Visible reports whether the node's rectangle overlaps the viewport
// expanded by buffer on all sides. Separating-axis test on the four edges;
// touching edges count as visible. Runs on the hot path for every node on
// every viewport change, so it must stay O(1) and allocation-free.
func Visible(n *node.Node, vp Viewport, buffer float64) bool {
	left := vp.ScrollX - buffer
	top := vp.ScrollY - buffer
	right := vp.ScrollX + vp.Width + buffer
	bottom := vp.ScrollY + vp.Height + buffer

	if n.X > right {
		return false
	}
	if n.X+n.Width < left {
		return false
	}
	if n.Y > bottom {
		return false
	}
	if n.Y+n.Height < top {
		return false
	}
	return true
}

// VisibleNodes filters nodes down to those visible in the viewport.
func VisibleNodes(nodes []node.Node, vp Viewport, buffer float64) []node.Node {
	out := make([]node.Node, 0, len(nodes))
	for i := range nodes {
		if Visible(&nodes[i], vp, buffer) {
			out = append(out, nodes[i])
		}
	}
	return out
}
