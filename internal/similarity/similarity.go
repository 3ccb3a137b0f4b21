package similarity

import "strings"

// Scorer 字符串相似度计算器
// 三种算法相互独立，结果均在 [0,1] 区间。
type Scorer struct {
	CaseSensitive     bool    // 是否区分大小写
	PrefixBonus       bool    // Jaro-Winkler 是否启用前缀加成
	PrefixBonusWeight float64 // 前缀加成权重，标准值 0.1
}

// fold 按大小写配置折叠字符串
func (s Scorer) fold(v string) string {
	if s.CaseSensitive {
		return v
	}
	return strings.ToLower(v)
}

// EditDistance 归一化编辑距离相似度
// 1 - editDistance(a,b) / max(len(a), len(b))，两个空串或相等串返回 1。
func (s Scorer) EditDistance(a, b string) float64 {
	a, b = s.fold(a), s.fold(b)
	if a == b {
		return 1
	}

	ra, rb := []rune(a), []rune(b)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 1
	}

	return 1 - float64(levenshtein(ra, rb))/float64(maxLen)
}

// levenshtein 计算编辑距离（按 rune，双行 DP）
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// JaroWinkler Jaro-Winkler 相似度
// 匹配窗口 floor(max(len)/2)-1；启用前缀加成时
// score = jaro + weight * min(commonPrefix, 4) * (1 - jaro)。
func (s Scorer) JaroWinkler(a, b string) float64 {
	a, b = s.fold(a), s.fold(b)
	if a == "" || b == "" {
		return 0
	}

	ra, rb := []rune(a), []rune(b)
	jaro := jaroScore(ra, rb)

	if !s.PrefixBonus || jaro == 0 {
		return jaro
	}

	prefix := 0
	for i := 0; i < len(ra) && i < len(rb) && i < 4; i++ {
		if ra[i] != rb[i] {
			break
		}
		prefix++
	}

	return jaro + s.PrefixBonusWeight*float64(prefix)*(1-jaro)
}

// jaroScore 标准 Jaro 相似度
func jaroScore(a, b []rune) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	window := maxLen/2 - 1
	if window < 0 {
		window = 0
	}

	matchedA := make([]bool, len(a))
	matchedB := make([]bool, len(b))

	matches := 0
	for i := range a {
		lo := i - window
		if lo < 0 {
			lo = 0
		}
		hi := i + window
		if hi >= len(b) {
			hi = len(b) - 1
		}
		for j := lo; j <= hi; j++ {
			if matchedB[j] || a[i] != b[j] {
				continue
			}
			matchedA[i] = true
			matchedB[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0
	}

	// 在匹配字符子序列上统计换位数
	transpositions := 0
	j := 0
	for i := range a {
		if !matchedA[i] {
			continue
		}
		for !matchedB[j] {
			j++
		}
		if a[i] != b[j] {
			transpositions++
		}
		j++
	}
	transpositions /= 2

	m := float64(matches)
	return (m/float64(len(a)) + m/float64(len(b)) + (m-float64(transpositions))/m) / 3
}

// Containment 包含相似度
// 一方包含另一方时返回 min(len)/max(len)，否则为 0。
func (s Scorer) Containment(a, b string) float64 {
	a, b = s.fold(a), s.fold(b)
	if a == "" || b == "" {
		return 0
	}

	ra, rb := []rune(a), []rune(b)
	if !strings.Contains(a, b) && !strings.Contains(b, a) {
		return 0
	}

	minLen, maxLen := len(ra), len(rb)
	if minLen > maxLen {
		minLen, maxLen = maxLen, minLen
	}

	return float64(minLen) / float64(maxLen)
}
