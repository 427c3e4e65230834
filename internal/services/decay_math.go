package services

import (
	"math"
	"strings"
	"time"
)

const normalizeEpsilon = 1e-6

// timeDecay returns exp(-ageDays/halfLifeDays) for the event's age at `now`.
// 1.0 at zero age, strictly decreasing with age, never negative.
func timeDecay(eventTime, now time.Time, halfLifeDays float64) float64 {
	deltaDays := now.Sub(eventTime).Hours() / 24
	return math.Exp(-deltaDays / halfLifeDays)
}

// minMaxNormalize maps each value into [0,1] via min-max over log(1+x) of the
// positive subset. Values <= 0 map to 0. When all positive values are equal
// the epsilon keeps the denominator nonzero and every value lands near 0.
func minMaxNormalize(values []float64) []float64 {
	out := make([]float64, len(values))

	minLog := math.Inf(1)
	maxLog := math.Inf(-1)
	anyPositive := false
	for _, v := range values {
		if v <= 0 {
			continue
		}
		anyPositive = true
		lv := math.Log1p(v)
		if lv < minLog {
			minLog = lv
		}
		if lv > maxLog {
			maxLog = lv
		}
	}
	if !anyPositive {
		return out
	}

	for i, v := range values {
		if v <= 0 {
			continue
		}
		out[i] = (math.Log1p(v) - minLog) / (maxLog - minLog + normalizeEpsilon)
	}
	return out
}

// shannonEntropyNormalized measures how evenly mass is spread across the
// weights: 0 for concentration on a single label, approaching 1 for a uniform
// spread. Absolute values are normalized to a probability simplex, entropy is
// taken in base 2 and divided by log2(count).
func shannonEntropyNormalized(weights map[string]float64) float64 {
	if len(weights) == 0 {
		return 0
	}

	total := 0.0
	for _, w := range weights {
		total += math.Abs(w)
	}
	if total == 0 {
		return 0
	}

	entropy := 0.0
	for _, w := range weights {
		p := math.Abs(w) / total
		if p > 0 {
			entropy -= p * math.Log2(p)
		}
	}

	maxEntropy := math.Log2(float64(len(weights)))
	if maxEntropy <= 0 {
		return 0
	}
	return entropy / maxEntropy
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// splitLabels parses a comma-delimited label list, trimming whitespace and
// dropping empty tokens.
func splitLabels(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	labels := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			labels = append(labels, t)
		}
	}
	return labels
}

// jaccardSimilarity over two label lists; 0 when either is empty.
func jaccardSimilarity(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	union := make(map[string]struct{}, len(a)+len(b))
	inA := make(map[string]struct{}, len(a))
	for _, l := range a {
		union[l] = struct{}{}
		inA[l] = struct{}{}
	}
	intersection := 0
	seen := make(map[string]struct{}, len(b))
	for _, l := range b {
		union[l] = struct{}{}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		if _, ok := inA[l]; ok {
			intersection++
		}
	}
	if len(union) == 0 {
		return 0
	}
	return float64(intersection) / float64(len(union))
}
