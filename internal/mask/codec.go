package mask

import "strings"

// CountsToString serialises counts into the COCO compressed form: each value
// (a delta against the count two places back, from the fourth count on) is
// written as 5-bit groups with a 0x20 continuation flag, offset by 48.
func CountsToString(counts []int) string {
	var b strings.Builder
	for i, x := range counts {
		if i > 2 {
			x -= counts[i-2]
		}
		for more := true; more; {
			c := x & 0x1f
			x >>= 5
			if c&0x10 != 0 {
				more = x != -1
			} else {
				more = x != 0
			}
			if more {
				c |= 0x20
			}
			b.WriteByte(byte(c + 48))
		}
	}
	return b.String()
}

// StringToCounts parses the COCO compressed form.
func StringToCounts(s string) []int {
	var counts []int
	p := 0
	for p < len(s) {
		x, k := 0, 0
		for more := true; more && p < len(s); {
			c := int(s[p]) - 48
			x |= (c & 0x1f) << (5 * k)
			more = c&0x20 != 0
			p++
			k++
			if !more && c&0x10 != 0 {
				x |= -1 << (5 * k)
			}
		}
		if len(counts) > 2 {
			x += counts[len(counts)-2]
		}
		counts = append(counts, x)
	}
	return counts
}

// FromString builds an RLE from a compressed counts string and its size.
func FromString(counts string, h, w int) RLE {
	return RLE{Size: [2]int{h, w}, Counts: StringToCounts(counts)}
}
