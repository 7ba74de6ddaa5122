package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// wrapText breaks text into lines no wider than width display cells,
// splitting on spaces. Words wider than width are hard-split.
func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		lines = append(lines, wrapParagraph(para, width)...)
	}
	return lines
}

func wrapParagraph(para string, width int) []string {
	words := strings.Fields(para)
	if len(words) == 0 {
		return []string{""}
	}
	var (
		lines     []string
		line      strings.Builder
		lineWidth int
	)
	flush := func() {
		lines = append(lines, line.String())
		line.Reset()
		lineWidth = 0
	}
	for _, word := range words {
		for _, chunk := range splitWide(word, width) {
			w := runewidth.StringWidth(chunk)
			if lineWidth > 0 && lineWidth+1+w > width {
				flush()
			}
			if lineWidth > 0 {
				line.WriteByte(' ')
				lineWidth++
			}
			line.WriteString(chunk)
			lineWidth += w
		}
	}
	flush()
	return lines
}

func splitWide(word string, width int) []string {
	if runewidth.StringWidth(word) <= width {
		return []string{word}
	}
	var (
		chunks []string
		cur    strings.Builder
		curW   int
	)
	for _, r := range word {
		rw := runewidth.RuneWidth(r)
		if curW+rw > width && curW > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curW = 0
		}
		cur.WriteRune(r)
		curW += rw
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}
