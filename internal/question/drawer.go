package question

// Draw picks one question from pool that is not in seen, uniformly at random.
// intn must return a value in [0, n). ok is false when every question was seen.
func Draw(pool []Question, seen SeenSet, intn func(n int) int) (q Question, ok bool) {
	remaining := make([]Question, 0, len(pool))
	for _, candidate := range pool {
		if !seen.Contains(candidate.ID) {
			remaining = append(remaining, candidate)
		}
	}
	if len(remaining) == 0 {
		return Question{}, false
	}
	return remaining[intn(len(remaining))], true
}
