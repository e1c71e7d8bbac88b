// CLAUDE:SUMMARY Marker placement constants, viewport clamping, anchor computation, proximity clustering (BFS) and stack keys.
package reconcile

import (
	"sort"
	"strings"

	"github.com/hazyhaar/annotator/dom"
)

// Marker geometry in CSS pixels.
const (
	MarkerSize    = 22
	MarkerPad     = 4
	MarkerOffset  = 8
	BadgeOverflow = 9
	// ClusterThreshold is the screen distance below which two markers
	// visually collide and merge into a stack.
	ClusterThreshold = MarkerSize + BadgeOverflow
	// BoxGap inflates the highlight box drawn around an annotated element.
	BoxGap = 4
)

// Anchor returns the unclamped marker position for an element box: just
// inside its top-right corner.
func Anchor(r dom.Rect) (top, left float64) {
	return r.Top() - MarkerOffset, r.Right() - MarkerOffset
}

// Clamp keeps a marker fully visible, leaving room for the count badge
// that overflows its top-right corner.
func Clamp(top, left float64, vp dom.Size) (float64, float64) {
	top = max(MarkerPad+BadgeOverflow, min(top, vp.Height-MarkerSize-MarkerPad))
	left = max(MarkerPad, min(left, vp.Width-MarkerSize-BadgeOverflow-MarkerPad))
	return top, left
}

// FindClusters groups markers into connected components of the proximity
// graph: two markers are linked when their distance is below
// ClusterThreshold. Components are returned in order of their first
// member; members keep breadth-first discovery order.
func FindClusters(ms []Marker) [][]Marker {
	if len(ms) == 0 {
		return nil
	}
	assigned := make([]bool, len(ms))
	var clusters [][]Marker
	for i := range ms {
		if assigned[i] {
			continue
		}
		assigned[i] = true
		queue := []int{i}
		var cluster []Marker
		for len(queue) > 0 {
			idx := queue[0]
			queue = queue[1:]
			cluster = append(cluster, ms[idx])
			for j := range ms {
				if assigned[j] {
					continue
				}
				if dom.Distance(ms[idx].Point(), ms[j].Point()) < ClusterThreshold {
					assigned[j] = true
					queue = append(queue, j)
				}
			}
		}
		clusters = append(clusters, cluster)
	}
	return clusters
}

// StackKey identifies a cluster by its members, independent of order.
func StackKey(ids []string) string {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}
