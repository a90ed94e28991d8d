package harvest

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	readability "codeberg.org/readeck/go-readability/v2"
	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const articleMinWords = 50

var titleCaser = cases.Title(language.English)

// ParseBlogIndex extracts the article links from one page of the blog index.
// Both the hero article and the card grid link styles appear on every page.
func ParseBlogIndex(raw, baseURL string) ([]string, error) {
	root, err := parseHTML(raw)
	if err != nil {
		return nil, fmt.Errorf("parse blog index: %w", err)
	}

	seen := make(map[string]struct{})
	var links []string
	for _, anchor := range findAll(root, func(n *html.Node) bool {
		return n.Data == "a" && (hasClass(n, "blog__hero-article") || hasClass(n, "article-card"))
	}) {
		href := resolveURL(baseURL, attrVal(anchor, "href"))
		if href == "" {
			continue
		}
		if _, ok := seen[href]; ok {
			continue
		}
		seen[href] = struct{}{}
		links = append(links, href)
	}
	return links, nil
}

// TitleFromURL derives a human-readable title from a blog post URL slug.
func TitleFromURL(postURL string) string {
	slug := postURL
	if idx := strings.Index(slug, "/blog/"); idx >= 0 {
		slug = slug[idx+len("/blog/"):]
	}
	slug = strings.Trim(slug, "/")
	slug = strings.TrimSuffix(slug, ".htm")
	if idx := strings.IndexAny(slug, "?#"); idx >= 0 {
		slug = slug[:idx]
	}
	return titleCaser.String(strings.ReplaceAll(slug, "-", " "))
}

// ExtractArticle pulls the readable body out of a rendered blog post. It
// tries Mozilla's Readability algorithm first, converts the cleaned subtree
// to markdown, and falls back to the whole-document text when readability
// produces too little.
func ExtractArticle(raw, pageURL string) string {
	parsedURL, _ := url.Parse(pageURL)
	article, err := readability.FromReader(strings.NewReader(raw), parsedURL)
	if err == nil && article.Node != nil {
		md, mdErr := htmltomarkdown.ConvertNode(article.Node)
		if mdErr == nil {
			text := strings.TrimSpace(string(md))
			if len(strings.Fields(text)) >= articleMinWords {
				return text
			}
		}
		var buf bytes.Buffer
		_ = article.RenderText(&buf)
		if text := strings.TrimSpace(buf.String()); len(strings.Fields(text)) >= articleMinWords {
			return text
		}
	}

	root, parseErr := parseHTML(raw)
	if parseErr != nil {
		return ""
	}
	if body := findFirst(root, byTag("body")); body != nil {
		return nodeText(body)
	}
	return nodeText(root)
}
