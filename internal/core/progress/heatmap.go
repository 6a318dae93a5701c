package progress

import (
	"path/filepath"
	"strings"
)

// Heatmap maps a topic to the most recent quiz score logged for it.
// Merge policy is overwrite-on-write: Set replaces any earlier score for the
// topic and keeps no history.
type Heatmap map[string]float64

func (h Heatmap) Set(topic string, score float64) {
	h[topic] = score
}

func (h Heatmap) Get(topic string) (float64, bool) {
	v, ok := h[topic]
	return v, ok
}

// Snapshot returns a copy that is safe to hand out. Never nil.
func (h Heatmap) Snapshot() map[string]float64 {
	out := make(map[string]float64, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// TopicFromFileName derives the heatmap key for a material: its base file
// name without the final extension ("notes/ch1.final.pdf" -> "ch1.final").
func TopicFromFileName(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
