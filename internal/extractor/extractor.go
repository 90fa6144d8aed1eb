// Package extractor turns fetched HTML into the structural features the
// scoring engine consumes. Malformed markup degrades to partial or
// empty features; extraction never fails.
package extractor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"safelink-scanner/internal/models"
)

// CleanTextLimit caps the plain-text rendering, counted in characters
// after tag stripping.
const CleanTextLimit = 2000

type Extractor struct{}

func New() *Extractor { return &Extractor{} }

var whitespaceRe = regexp.MustCompile(`\s+`)

// Extract parses the document and collects title, meta tags, links,
// forms, script/image/iframe sources and a length-capped clean text.
func (e *Extractor) Extract(html string) models.ExtractedFeatures {
	var out models.ExtractedFeatures
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return out
	}

	out.Title = strings.TrimSpace(doc.Find("title").First().Text())
	out.MetaDescription = doc.Find(`meta[name="description"]`).First().AttrOr("content", "")
	out.MetaKeywords = doc.Find(`meta[name="keywords"]`).First().AttrOr("content", "")

	// Link targets are kept verbatim, duplicates and relative paths
	// included; resolution against a base URL is the scorer's concern.
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		out.Links = append(out.Links, href)
	})

	doc.Find("form").Each(func(i int, s *goquery.Selection) {
		form := models.Form{
			Method: strings.ToUpper(s.AttrOr("method", "GET")),
			Action: s.AttrOr("action", ""),
		}
		s.Find("input").Each(func(j int, in *goquery.Selection) {
			typ := strings.ToLower(in.AttrOr("type", "text"))
			name := strings.ToLower(in.AttrOr("name", ""))
			form.Inputs = append(form.Inputs, models.FormInput{
				Type:        typ,
				Name:        name,
				Placeholder: in.AttrOr("placeholder", ""),
			})
			if typ == "password" || strings.Contains(name, "password") {
				form.HasPassword = true
			}
		})
		out.Forms = append(out.Forms, form)
	})

	doc.Find("script[src]").Each(func(i int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		out.Scripts = append(out.Scripts, src)
	})
	doc.Find("img[src]").Each(func(i int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		out.Images = append(out.Images, src)
	})
	doc.Find("iframe[src]").Each(func(i int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		out.Iframes = append(out.Iframes, src)
	})

	// Clean text: drop script/style subtrees, join the remaining text
	// nodes with single spaces, cap after assembly. Adjacent elements
	// carry no separator of their own, so concatenating the document
	// text would merge their words.
	doc.Find("script,style").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})
	var parts []string
	for _, n := range doc.Nodes {
		collectText(n, &parts)
	}
	text := strings.TrimSpace(whitespaceRe.ReplaceAllString(strings.Join(parts, " "), " "))
	if runes := []rune(text); len(runes) > CleanTextLimit {
		text = string(runes[:CleanTextLimit])
	}
	out.CleanText = text

	return out
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			*parts = append(*parts, t)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}
