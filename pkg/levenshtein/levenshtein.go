// Package levenshtein computes the classic Levenshtein edit distance used for
// "did you mean" suggestions over normalized spell-name keys.
package levenshtein

// Context carries a reusable DP row so repeated distance computations over a
// name table do not allocate per comparison. A Context is not safe for
// concurrent use; create one per goroutine.
type Context struct {
	row []int
}

func (ctx *Context) buffer(length int) []int {
	if cap(ctx.row) < length {
		ctx.row = make([]int, length)
	}

	return ctx.row[:length]
}

// Distance returns the minimum number of single-rune insertions, deletions or
// substitutions (each costing 1) needed to turn str1 into str2.
func (ctx *Context) Distance(str1, str2 string) int {
	return ctx.distance([]rune(str1), []rune(str2), -1)
}

// DistanceAtMost returns the edit distance between str1 and str2 when it does
// not exceed limit, and limit+1 otherwise. The computation stops as soon as
// every cell of the current DP row is above limit.
func (ctx *Context) DistanceAtMost(str1, str2 string, limit int) int {
	if limit < 0 {
		return ctx.Distance(str1, str2)
	}

	return ctx.distance([]rune(str1), []rune(str2), limit)
}

// Distance is a convenience wrapper that allocates a fresh Context.
func Distance(str1, str2 string) int {
	var ctx Context

	return ctx.Distance(str1, str2)
}

func (ctx *Context) distance(long, short []rune, limit int) int {
	if len(long) < len(short) {
		long, short = short, long
	}

	bounded := limit >= 0

	if bounded && len(long)-len(short) > limit {
		return limit + 1
	}

	if len(short) == 0 {
		return clamp(len(long), limit)
	}

	row := ctx.buffer(len(short) + 1)
	for idx := range row {
		row[idx] = idx
	}

	for i := 1; i <= len(long); i++ {
		diag := row[0]
		row[0] = i
		rowMin := row[0]

		for j := 1; j <= len(short); j++ {
			up := row[j]

			cost := 1
			if long[i-1] == short[j-1] {
				cost = 0
			}

			row[j] = min(up+1, row[j-1]+1, diag+cost)
			diag = up
			rowMin = min(rowMin, row[j])
		}

		if bounded && rowMin > limit {
			return limit + 1
		}
	}

	return clamp(row[len(short)], limit)
}

func clamp(dist, limit int) int {
	if limit >= 0 && dist > limit {
		return limit + 1
	}

	return dist
}
