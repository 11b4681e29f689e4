package cluster

import "fmt"

// TargetLabel picks the cluster interpreted as annual-grass dominated: the
// centroid with the highest value on the annual-grass band. Cluster indices
// from an unsupervised fit are not stable across seeds, so the target is
// always selected by this post-fit rule, never by a fixed index.
func TargetLabel(m Model, band int) (int, error) {
	if !m.Fitted() {
		return 0, ErrNotFitted
	}
	if band < 0 || band >= len(m.Centroids[0]) {
		return 0, fmt.Errorf("band index %d outside centroid dimensions [0,%d)", band, len(m.Centroids[0]))
	}
	target := 0
	best := m.Centroids[0][band]
	for c, centroid := range m.Centroids {
		if centroid[band] > best {
			best = centroid[band]
			target = c
		}
	}
	return target, nil
}
