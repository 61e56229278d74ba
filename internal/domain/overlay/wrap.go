package overlay

import "strings"

// WrapText word-wraps caption text for a vertical frame: at most two lines,
// budgeted by maxCharsPerLine. Symbolic and pictographic runes are excluded
// from the length count so emoji never force a premature wrap, but they stay
// in the output untouched. When the text needs more than two lines the
// second line is trimmed word by word and closed with an ellipsis. Returns
// the wrapped text (lines joined with "\n") and whether it is multi-line.
func WrapText(text string, maxCharsPerLine int) (string, bool) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return strings.TrimSpace(text), false
	}

	var lines []string
	cur := ""
	curLen := 0
	for _, w := range words {
		wl := plainLen(w)
		potential := wl
		if cur != "" {
			potential = curLen + 1 + wl
		}
		if potential <= maxCharsPerLine {
			if cur != "" {
				cur += " "
			}
			cur += w
			curLen = potential
		} else {
			if cur != "" {
				lines = append(lines, cur)
			}
			cur = w
			curLen = wl
		}
	}
	lines = append(lines, cur)

	if len(lines) > 2 {
		lines = lines[:2]
		last := lines[1]
		if plainLen(last) > maxCharsPerLine-3 {
			ws := strings.Fields(last)
			for len(ws) > 0 && plainLen(strings.Join(ws, " ")) > maxCharsPerLine-3 {
				ws = ws[:len(ws)-1]
			}
			lines[1] = strings.Join(ws, " ") + "..."
		} else {
			lines[1] = last + "..."
		}
	}

	return strings.Join(lines, "\n"), len(lines) > 1
}

// plainLen counts runes that contribute to visual line width, skipping
// symbolic/pictographic glyphs.
func plainLen(s string) int {
	n := 0
	for _, r := range s {
		if isSymbolicRune(r) {
			continue
		}
		n++
	}
	return n
}

func isSymbolicRune(r rune) bool {
	switch {
	case r == 0x24C2: // circled M
		return true
	case r >= 0x2702 && r <= 0x27B0: // dingbats
		return true
	case r >= 0x1F170 && r <= 0x1F251: // enclosed alphanumerics, flags
		return true
	case r >= 0x1F300 && r <= 0x1F5FF: // misc symbols and pictographs
		return true
	case r >= 0x1F600 && r <= 0x1F64F: // emoticons
		return true
	case r >= 0x1F680 && r <= 0x1F6FF: // transport and map symbols
		return true
	default:
		return false
	}
}
