package ingest

import (
	"bytes"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"golang.org/x/net/html"
)

var (
	scriptRe         = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe          = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	excessiveLinesRe = regexp.MustCompile(`\n{4,}`)
)

// Extracted is the text recovered from an uploaded file.
type Extracted struct {
	Title    string
	Text     string
	MIMEType string
}

// Extractor turns uploaded bytes into prompt-ready text.
type Extractor struct {
	converter *md.Converter
}

// NewExtractor creates an extractor with GitHub-flavored Markdown output for HTML.
func NewExtractor() *Extractor {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &Extractor{converter: converter}
}

// Extract returns the file's text. HTML is converted to Markdown, other
// UTF-8 text is kept as-is, and binary content yields no text.
func (e *Extractor) Extract(fileName, mimeType string, data []byte) (Extracted, error) {
	mimeType = DetectMIME(fileName, mimeType, data)
	out := Extracted{MIMEType: mimeType}

	switch {
	case isHTML(mimeType):
		out.Title = htmlTitle(data)
		cleaned := styleRe.ReplaceAllString(scriptRe.ReplaceAllString(string(data), ""), "")
		markdown, err := e.converter.ConvertString(cleaned)
		if err != nil {
			return Extracted{}, err
		}
		out.Text = strings.TrimSpace(excessiveLinesRe.ReplaceAllString(markdown, "\n\n\n"))
	case utf8.Valid(data) && !bytes.ContainsRune(data, 0):
		out.Text = strings.TrimSpace(strings.TrimPrefix(string(data), "\ufeff"))
	}
	return out, nil
}

// DetectMIME prefers the declared type, then the file extension, then content sniffing.
func DetectMIME(fileName, declared string, data []byte) string {
	if declared = strings.TrimSpace(declared); declared != "" && declared != "application/octet-stream" {
		return declared
	}
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".html", ".htm":
		return "text/html; charset=utf-8"
	case ".md", ".markdown":
		return "text/markdown; charset=utf-8"
	case ".txt":
		return "text/plain; charset=utf-8"
	}
	return http.DetectContentType(data)
}

func isHTML(mimeType string) bool {
	return strings.HasPrefix(mimeType, "text/html") || strings.HasPrefix(mimeType, "application/xhtml")
}

func htmlTitle(content []byte) string {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return ""
	}
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}
