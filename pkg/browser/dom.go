package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const (
	maxDigestHeadings = 10
	maxDigestText     = 500
)

// DOMDigest summarises the structure of a rendered page.
type DOMDigest struct {
	Title    string
	Headings []string
	Elements int
	Links    int
	Forms    int
	Inputs   int
	Buttons  int
	Images   int
	Scripts  int
	Text     string // leading visible text, truncated
}

// DigestDOM parses rendered HTML and counts the elements that matter when
// debugging a page that loads but looks wrong.
func DigestDOM(rawHTML string) (*DOMDigest, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	d := &DOMDigest{
		Title:    strings.TrimSpace(doc.Find("title").First().Text()),
		Elements: doc.Find("*").Length(),
		Links:    doc.Find("a[href]").Length(),
		Forms:    doc.Find("form").Length(),
		Inputs:   doc.Find("input, select, textarea").Length(),
		Buttons:  doc.Find(`button, [role="button"], input[type="submit"]`).Length(),
		Images:   doc.Find("img").Length(),
		Scripts:  doc.Find("script").Length(),
	}

	doc.Find("h1, h2, h3").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if text := collapseSpace(s.Text()); text != "" {
			d.Headings = append(d.Headings, strings.ToLower(goquery.NodeName(s))+": "+text)
		}
		return len(d.Headings) < maxDigestHeadings
	})

	doc.Find("script, style, noscript, template").Remove()
	text := visibleText(doc)
	if len(text) > maxDigestText {
		text = text[:maxDigestText] + " [...]"
	}
	d.Text = text

	return d, nil
}

// Fields renders the digest as zap fields.
func (d *DOMDigest) Fields() []zap.Field {
	return []zap.Field{
		zap.String("title", d.Title),
		zap.Strings("headings", d.Headings),
		zap.Int("elements", d.Elements),
		zap.Int("links", d.Links),
		zap.Int("forms", d.Forms),
		zap.Int("inputs", d.Inputs),
		zap.Int("buttons", d.Buttons),
		zap.Int("images", d.Images),
		zap.Int("scripts", d.Scripts),
		zap.String("text", d.Text),
	}
}

// visibleText extracts the document text, one line per block element.
func visibleText(doc *goquery.Document) string {
	var sb strings.Builder
	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, s *goquery.Selection) {
			node := s.Get(0)
			if node == nil {
				return
			}
			if node.Type == html.TextNode {
				if t := strings.TrimSpace(node.Data); t != "" {
					sb.WriteString(t)
					sb.WriteString(" ")
				}
				return
			}
			walk(s)
			switch strings.ToLower(node.Data) {
			case "p", "div", "section", "article", "li", "tr",
				"h1", "h2", "h3", "h4", "h5", "h6",
				"blockquote", "pre", "br":
				sb.WriteString("\n")
			}
		})
	}
	walk(doc.Selection)

	var lines []string
	for _, l := range strings.Split(sb.String(), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "\n")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// WithDOMDebug wraps s so every successful navigation logs a DOM digest.
// Digest failures are logged and never fail the navigation.
func WithDOMDebug(s Session, log *zap.Logger) Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &domDebugSession{Session: s, log: log}
}

type domDebugSession struct {
	Session
	log *zap.Logger
}

func (s *domDebugSession) Navigate(ctx context.Context, url string, wait WaitMode) error {
	if err := s.Session.Navigate(ctx, url, wait); err != nil {
		return err
	}

	content, err := s.Session.Content(ctx)
	if err != nil {
		s.log.Warn("dom digest unavailable", zap.String("url", url), zap.Error(err))
		return nil
	}
	digest, err := DigestDOM(content)
	if err != nil {
		s.log.Warn("dom digest failed", zap.String("url", url), zap.Error(err))
		return nil
	}
	s.log.Info("dom digest", append([]zap.Field{zap.String("url", url)}, digest.Fields()...)...)
	return nil
}
