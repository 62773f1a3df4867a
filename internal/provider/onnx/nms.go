package onnx

import "sort"

// nonMaxSuppression keeps the highest scoring candidate of every overlapping group.
// Output is ordered by descending score.
func nonMaxSuppression(cands []candidate, iouThreshold float32) []candidate {
	if len(cands) == 0 {
		return cands
	}

	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].score > cands[j].score
	})

	keep := make([]bool, len(cands))
	for i := range keep {
		keep[i] = true
	}

	for i := range cands {
		if !keep[i] {
			continue
		}
		for j := i + 1; j < len(cands); j++ {
			if keep[j] && iou(cands[i], cands[j]) > iouThreshold {
				keep[j] = false
			}
		}
	}

	out := make([]candidate, 0, len(cands))
	for i, c := range cands {
		if keep[i] {
			out = append(out, c)
		}
	}
	return out
}

func iou(a, b candidate) float32 {
	x1 := max(a.x1, b.x1)
	y1 := max(a.y1, b.y1)
	x2 := min(a.x2, b.x2)
	y2 := min(a.y2, b.y2)

	if x1 >= x2 || y1 >= y2 {
		return 0
	}

	inter := (x2 - x1) * (y2 - y1)
	union := a.area() + b.area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
