package core

// NormalizeKey canonicalizes a column header into a stable lookup key:
// lowercase, with every character outside [a-z0-9] removed. Headers that
// differ only by case, whitespace or punctuation normalize to the same
// key ("Cost Center", "cost center ", "Cost_Center" -> "costcenter"),
// which is what makes schema drift in the sheet tolerable.
//
// An empty or all-punctuation header normalizes to the empty string.
// Callers must treat an empty key as unmapped and skip it when building
// lookup tables, never use it as a catch-all match.
func NormalizeKey(header string) string {
	b := make([]byte, 0, len(header))
	for i := 0; i < len(header); i++ {
		c := header[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b = append(b, c)
		case c >= 'A' && c <= 'Z':
			b = append(b, c+'a'-'A')
		}
	}
	return string(b)
}
