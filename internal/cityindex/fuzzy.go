package cityindex

// match is the best approximate occurrence of a pattern inside a text.
type match struct {
	errors int
	start  int
}

// locationScale spreads the start-position penalty; a match starting 100
// runes into the text costs as much as an error on every pattern rune.
const locationScale = 100

// approxSubstring finds the occurrence of pattern in text with the fewest
// edits (insertions, deletions, substitutions), preferring earlier starts.
// This is Sellers' variant of the Levenshtein recurrence, where the match
// may begin anywhere in text at no cost.
func approxSubstring(pattern, text []rune) match {
	m, n := len(pattern), len(text)
	if m == 0 {
		return match{}
	}

	prev := make([]int, n+1)
	cur := make([]int, n+1)
	prevStart := make([]int, n+1)
	curStart := make([]int, n+1)
	for j := 0; j <= n; j++ {
		prevStart[j] = j
	}

	for i := 1; i <= m; i++ {
		cur[0] = i
		curStart[0] = 0
		for j := 1; j <= n; j++ {
			cost := 1
			if pattern[i-1] == text[j-1] {
				cost = 0
			}
			best, start := prev[j-1]+cost, prevStart[j-1]
			if d := prev[j] + 1; d < best {
				best, start = d, prevStart[j]
			}
			if d := cur[j-1] + 1; d < best {
				best, start = d, curStart[j-1]
			}
			cur[j], curStart[j] = best, start
		}
		prev, cur = cur, prev
		prevStart, curStart = curStart, prevStart
	}

	res := match{errors: prev[0], start: prevStart[0]}
	for j := 1; j <= n; j++ {
		if prev[j] < res.errors || (prev[j] == res.errors && prevStart[j] < res.start) {
			res = match{errors: prev[j], start: prevStart[j]}
		}
	}
	return res
}

// fuzzyScore rates how well pattern occurs in text: 0 is an exact match at
// the start, larger is worse. Scores above the index threshold are misses.
func fuzzyScore(pattern, text []rune) float64 {
	if len(pattern) == 0 {
		return 1
	}
	m := approxSubstring(pattern, text)
	return float64(m.errors)/float64(len(pattern)) + float64(m.start)/locationScale
}
