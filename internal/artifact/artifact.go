// Package artifact turns raw model output into previewable documents and downloadable archives.
package artifact

import (
	"fmt"
	"html"
	"strings"

	"github.com/eburon/artifact-web-ui/internal/modes"
)

const p5CDN = "https://cdn.jsdelivr.net/npm/p5@1.9.4/lib/p5.min.js"

// Extract strips a surrounding markdown code fence from content. Models are told not to emit one but
// often do. An opening fence without its closing one, as seen mid-stream, is stripped too.
func Extract(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	_, rest, ok := strings.Cut(s, "\n")
	if !ok {
		// Only the opening fence has arrived so far.
		return ""
	}
	rest = strings.TrimRight(rest, " \t\r\n")
	if strings.HasSuffix(rest, "```") {
		rest = strings.TrimSuffix(rest, "```")
	}
	return strings.TrimSpace(rest)
}

// Document builds the preview document for content generated in mode.
func Document(mode modes.Mode, content string) string {
	src := Extract(content)

	if mode.ImageOutput {
		if strings.HasPrefix(src, "data:image/") {
			return page(fmt.Sprintf(`<img src="%s" alt="Generated image" style="max-width:100%%;height:auto">`,
				html.EscapeString(src)))
		}
		return page("<pre>" + html.EscapeString(src) + "</pre>")
	}

	switch mode.Syntax {
	case "javascript":
		return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<script src="%s"></script>
<style>html,body{margin:0;padding:0;overflow:hidden}</style>
</head>
<body>
<script>
%s
</script>
</body>
</html>
`, p5CDN, escapeScript(src))
	case "xml":
		return page(src)
	default:
		lower := strings.ToLower(src)
		if strings.HasPrefix(lower, "<!doctype") || strings.Contains(lower, "<html") {
			return src
		}
		return page(src)
	}
}

func page(body string) string {
	return `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>body{margin:0;min-height:100vh;display:grid;place-items:center;background:#fff}</style>
</head>
<body>
` + body + `
</body>
</html>
`
}

// escapeScript keeps a literal "</script" inside inline code from closing the tag early.
func escapeScript(code string) string {
	return strings.ReplaceAll(code, "</script", `<\/script`)
}

// Slug turns a title into a file name friendly string.
func Slug(title string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			sb.WriteRune(r)
			dash = false
		case !dash && sb.Len() > 0:
			sb.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(sb.String(), "-")
	if s == "" {
		return "artifact"
	}
	return s
}
