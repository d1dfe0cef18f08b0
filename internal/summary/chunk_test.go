package summary

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bullets become paragraphs",
			in:   "- one\n- two\n- three",
			want: "- one\n\n- two\n\n- three",
		},
		{
			name: "blank line runs collapse",
			in:   "intro\n\n\n\n\n- one\n\n\n- two",
			want: "intro\n\n- one\n\n- two",
		},
		{
			name: "crlf and trailing spaces",
			in:   "- one  \r\n- two\t\r\n",
			want: "- one\n\n- two",
		},
		{
			name: "indented dash is not a bullet",
			in:   "line\n  - nested",
			want: "line\n  - nested",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestChunk_PacksWholeSections(t *testing.T) {
	sections := []string{
		strings.Repeat("a", 400),
		strings.Repeat("b", 400),
		strings.Repeat("c", 400),
	}
	chunks := Chunk(strings.Join(sections, "\n\n"), 1000)

	assert.Equal(t, []string{
		sections[0] + "\n\n" + sections[1],
		sections[2],
	}, chunks)
}

func TestChunk_SeparatorCountsTowardLimit(t *testing.T) {
	a := strings.Repeat("a", 499)
	b := strings.Repeat("b", 500)

	// 499 + 2 + 500 = 1001
	assert.Len(t, Chunk(a+"\n\n"+b, 1000), 2)
	// 498 + 2 + 500 = 1000
	assert.Len(t, Chunk(a[1:]+"\n\n"+b, 1000), 1)
}

func TestChunk_OversizedSectionStandsAlone(t *testing.T) {
	big := strings.Repeat("x", 1500)
	chunks := Chunk("- small\n\n"+big+"\n\n- tail", 1000)

	assert.Equal(t, []string{"- small", big, "- tail"}, chunks)
}

func TestChunk_CountsRunes(t *testing.T) {
	section := strings.Repeat("ż", 499)
	chunks := Chunk(section+"\n\n"+section, 1000)
	assert.Len(t, chunks, 1)
}

func TestChunk_Empty(t *testing.T) {
	assert.Empty(t, Chunk("", 1000))
	assert.Empty(t, NormalizeAndChunk("\n\n  \n", 1000))
}

func bulletSummary(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "- Point %d discussed %s https://discord.com/channels/1/2/%d\n", i, strings.Repeat("detail ", i%13), 1000+i)
	}
	sb.WriteString("\n\n\n")
	sb.WriteString(strings.Repeat("y", 1200))
	return sb.String()
}

func TestNormalizeAndChunk_Invariant(t *testing.T) {
	for _, max := range []int{100, 300, 1000} {
		chunks := NormalizeAndChunk(bulletSummary(60), max)
		for _, c := range chunks {
			if utf8.RuneCountInString(c) > max {
				assert.NotContains(t, c, "\n\n", "oversized chunk with max %d must be a single section", max)
			}
			assert.Equal(t, strings.TrimSpace(c), c)
			assert.NotEmpty(t, c)
		}
	}
}

func TestNormalizeAndChunk_Idempotent(t *testing.T) {
	inputs := []string{
		bulletSummary(40),
		"Summary:\n- a\n-b\n\n\n\n- c  \n",
		"  leading\n\n- x\n  - y\n",
	}
	for _, max := range []int{50, 1000} {
		for _, in := range inputs {
			first := NormalizeAndChunk(in, max)
			second := NormalizeAndChunk(strings.Join(first, "\n\n"), max)
			assert.Equal(t, first, second)
		}
	}
}
