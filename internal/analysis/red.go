package analysis

import "github.com/couchcryptid/flood-wave-graph/internal/domain"

// RedWaves returns the waves passing through target that reached high
// water there. With fullWave set, every vertex of the wave must be red
// instead. Vertex colors come from vertices; an unknown vertex counts as
// not red. The input slice is not modified.
func RedWaves(waves []domain.Wave, vertices domain.VertexMap, target string, fullWave bool) []domain.Wave {
	isRed := func(k domain.VertexKey) bool {
		v, ok := vertices[k]
		return ok && v.Color == domain.Red
	}

	var out []domain.Wave
	for _, w := range waves {
		if !w.Passes(target) {
			continue
		}
		keep := true
		for _, k := range w {
			if fullWave && !isRed(k) {
				keep = false
				break
			}
			if !fullWave && k.Station == target && !isRed(k) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, w)
		}
	}
	return out
}
