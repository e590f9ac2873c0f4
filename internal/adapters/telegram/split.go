package telegram

import "strings"

const messageLimit = 4096

// SplitMessage breaks the text into chunks within Telegram's message size
// limit. Paragraphs are kept together when they fit; an oversized paragraph
// falls back to line boundaries and finally to a hard cut.
func SplitMessage(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if len([]rune(trimmed)) <= messageLimit {
		return []string{trimmed}
	}

	var parts []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		chunk := strings.TrimSpace(current.String())
		if chunk != "" {
			parts = append(parts, chunk)
		}
		current.Reset()
		currentLen = 0
	}

	appendBlock := func(block string, sep string) {
		blockLen := len([]rune(block))
		sepLen := len([]rune(sep))
		if currentLen > 0 && currentLen+sepLen+blockLen > messageLimit {
			flush()
		}
		if currentLen > 0 {
			current.WriteString(sep)
			currentLen += sepLen
		}
		current.WriteString(block)
		currentLen += blockLen
	}

	for _, paragraph := range strings.Split(trimmed, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		if len([]rune(paragraph)) <= messageLimit {
			appendBlock(paragraph, "\n\n")
			continue
		}
		for _, line := range strings.Split(paragraph, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			for _, piece := range hardCut(line) {
				appendBlock(piece, "\n")
			}
		}
	}
	flush()

	if len(parts) == 0 {
		return []string{trimmed}
	}
	return parts
}

// hardCut slices a single overlong line into limit-sized rune chunks.
func hardCut(line string) []string {
	runes := []rune(line)
	if len(runes) <= messageLimit {
		return []string{line}
	}
	var pieces []string
	for start := 0; start < len(runes); start += messageLimit {
		end := start + messageLimit
		if end > len(runes) {
			end = len(runes)
		}
		pieces = append(pieces, string(runes[start:end]))
	}
	return pieces
}
