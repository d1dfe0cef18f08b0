package summary

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMaxChunkLength keeps each posted message well under the platform limit
const DefaultMaxChunkLength = 1000

const sectionSeparator = "\n\n"

var extraBlankLines = regexp.MustCompile(`\n{3,}`)

// Normalize puts every bullet in its own paragraph and collapses runs of blank lines
func Normalize(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = strings.TrimRight(line, " \t")
		if strings.HasPrefix(line, "-") {
			line = "\n" + line
		}
		lines[i] = line
	}
	text = strings.Join(lines, "\n")

	text = extraBlankLines.ReplaceAllString(text, sectionSeparator)
	return strings.TrimSpace(text)
}

// Chunk splits normalized text on blank lines and packs whole sections into
// chunks of at most maxLength runes. A section longer than maxLength becomes
// its own chunk.
func Chunk(text string, maxLength int) []string {
	if maxLength <= 0 {
		maxLength = DefaultMaxChunkLength
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	for _, section := range strings.Split(text, sectionSeparator) {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}
		sectionLen := utf8.RuneCountInString(section)

		if currentLen > 0 && currentLen+len(sectionSeparator)+sectionLen > maxLength {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}

		if currentLen > 0 {
			current.WriteString(sectionSeparator)
			currentLen += len(sectionSeparator)
		}
		current.WriteString(section)
		currentLen += sectionLen
	}

	if currentLen > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// NormalizeAndChunk prepares raw model output for posting
func NormalizeAndChunk(raw string, maxLength int) []string {
	return Chunk(Normalize(raw), maxLength)
}
