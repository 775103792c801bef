package picker

import "unicode/utf8"

const ellipsis = "…"

// truncate shortens text to maxWidth runes, ending in an ellipsis when
// anything was cut.
func truncate(text string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= maxWidth {
		return text
	}

	ellipsisLen := utf8.RuneCountInString(ellipsis)
	if maxWidth <= ellipsisLen {
		return string([]rune(ellipsis)[:maxWidth])
	}
	runes := []rune(text)
	return string(runes[:maxWidth-ellipsisLen]) + ellipsis
}
