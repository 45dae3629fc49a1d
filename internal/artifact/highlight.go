package artifact

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(
		highlighting.NewHighlighting(
			highlighting.WithStyle("monokai"),
		),
	),
)

// Highlight renders code as a syntax highlighted HTML block. The code is wrapped in a fenced block whose
// fence is longer than any backtick run inside it, so the code can never close the block itself.
func Highlight(syntax, code string) (string, error) {
	code = Extract(code)
	fence := strings.Repeat("`", max(3, longestRun(code, '`')+1))

	src := fmt.Sprintf("%s%s\n%s\n%s\n", fence, syntax, code, fence)

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("failed to render code: %w", err)
	}
	return buf.String(), nil
}

func longestRun(s string, c byte) int {
	longest, cur := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] != c {
			cur = 0
			continue
		}
		cur++
		longest = max(longest, cur)
	}
	return longest
}
