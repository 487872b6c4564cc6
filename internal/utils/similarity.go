package utils

import "strings"

// SequenceRatio returns a similarity in [0, 1] between two strings, computed
// as 2*M/T where M is the number of runes covered by the Ratcliff/Obershelp
// matching blocks and T is the combined rune length. Comparison is
// case-insensitive. Two empty strings are identical (1.0).
//
// The pair is matched in lexicographic order so that
// SequenceRatio(a, b) == SequenceRatio(b, a) even when longest matches tie.
func SequenceRatio(a, b string) float64 {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))

	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	if string(ra) > string(rb) {
		ra, rb = rb, ra
	}

	matched := matchingRunes(ra, rb)
	return 2.0 * float64(matched) / float64(total)
}

type span struct {
	alo, ahi, blo, bhi int
}

// matchingRunes sums the sizes of all matching blocks: find the longest
// common substring, then recurse on the unmatched regions to its left and right.
func matchingRunes(a, b []rune) int {
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}

	matched := 0
	queue := []span{{0, len(a), 0, len(b)}}
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, k := longestMatch(a, b2j, s)
		if k == 0 {
			continue
		}
		matched += k
		if s.alo < i && s.blo < j {
			queue = append(queue, span{s.alo, i, s.blo, j})
		}
		if i+k < s.ahi && j+k < s.bhi {
			queue = append(queue, span{i + k, s.ahi, j + k, s.bhi})
		}
	}
	return matched
}

// longestMatch finds the longest block a[i:i+k] == b[j:j+k] inside the span,
// preferring the smallest i and then the smallest j on ties.
func longestMatch(a []rune, b2j map[rune][]int, s span) (besti, bestj, bestk int) {
	besti, bestj = s.alo, s.blo
	j2len := map[int]int{}
	for i := s.alo; i < s.ahi; i++ {
		newj2len := map[int]int{}
		for _, j := range b2j[a[i]] {
			if j < s.blo {
				continue
			}
			if j >= s.bhi {
				break
			}
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestk {
				besti, bestj, bestk = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}
	return besti, bestj, bestk
}
