package careers

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// strippedElements never reach the careers page
const strippedElements = "script, style, iframe, object, embed, link, meta, base, form"

var urlAttributes = map[string]bool{
	"href":       true,
	"src":        true,
	"action":     true,
	"formaction": true,
	"xlink:href": true,
}

// SanitizeHTML removes active content from recruiter-authored section HTML:
// dangerous elements, event handler attributes and javascript: URLs
func SanitizeHTML(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return fragment
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return html.EscapeString(fragment)
	}

	doc.Find(strippedElements).Remove()
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		node := s.Get(0)
		kept := node.Attr[:0]
		for _, a := range node.Attr {
			key := strings.ToLower(a.Key)
			if strings.HasPrefix(key, "on") {
				continue
			}
			if urlAttributes[key] && isScriptURL(a.Val) {
				continue
			}
			kept = append(kept, a)
		}
		node.Attr = kept
	})

	out, err := doc.Find("body").Html()
	if err != nil {
		return html.EscapeString(fragment)
	}
	return out
}

func isScriptURL(v string) bool {
	cleaned := strings.Map(func(r rune) rune {
		if r <= ' ' {
			return -1
		}
		return r
	}, strings.ToLower(v))
	return strings.HasPrefix(cleaned, "javascript:") ||
		strings.HasPrefix(cleaned, "vbscript:") ||
		strings.HasPrefix(cleaned, "data:text/html")
}
