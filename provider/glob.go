package provider

// MatchGlob reports whether key matches pattern using the rules of Redis
// KEYS and SCAN MATCH, so in-process stores list the same keys Redis would:
//
//	*      any run of bytes, '/' included
//	?      one byte
//	[abc]  one byte from the set; [^abc] negates, [a-z] is a range
//	\x     the literal x
//
// Matching is byte-wise and never fails: an unterminated class ends at the
// end of the pattern.
func MatchGlob(pattern, key string) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case '*':
			for len(pattern) > 1 && pattern[1] == '*' {
				pattern = pattern[1:]
			}
			if len(pattern) == 1 {
				return true
			}
			for i := 0; i <= len(key); i++ {
				if MatchGlob(pattern[1:], key[i:]) {
					return true
				}
			}
			return false
		case '?':
			if len(key) == 0 {
				return false
			}
			pattern, key = pattern[1:], key[1:]
		case '[':
			if len(key) == 0 {
				return false
			}
			ok, rest := matchClass(pattern[1:], key[0])
			if !ok {
				return false
			}
			pattern, key = rest, key[1:]
		case '\\':
			if len(pattern) >= 2 {
				pattern = pattern[1:]
			}
			fallthrough
		default:
			if len(key) == 0 || pattern[0] != key[0] {
				return false
			}
			pattern, key = pattern[1:], key[1:]
		}
	}
	return len(key) == 0
}

// matchClass matches c against the class body p (after '[') and returns the
// pattern remaining after the closing ']'.
func matchClass(p string, c byte) (bool, string) {
	negate := false
	if len(p) > 0 && p[0] == '^' {
		negate, p = true, p[1:]
	}
	hit := false
	for len(p) > 0 {
		switch {
		case p[0] == ']':
			return hit != negate, p[1:]
		case p[0] == '\\' && len(p) >= 2:
			hit = hit || p[1] == c
			p = p[2:]
		case len(p) >= 3 && p[1] == '-':
			lo, hi := p[0], p[2]
			if lo > hi {
				lo, hi = hi, lo
			}
			hit = hit || (c >= lo && c <= hi)
			p = p[3:]
		default:
			hit = hit || p[0] == c
			p = p[1:]
		}
	}
	return hit != negate, p
}
