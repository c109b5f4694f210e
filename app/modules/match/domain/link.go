package matchdomain

import (
	"regexp"
	"strings"
)

var challengeLinkPattern = regexp.MustCompile(`https://(?:www\.)?geoguessr\.com/challenge/(\w+)`)

// DetectLinks returns the unique challenge tokens found in text, in order of
// appearance. Tokens longer than MaxLinkLength are ignored.
func DetectLinks(text string) []string {
	matches := challengeLinkPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	links := make([]string, 0, len(matches))
	for _, m := range matches {
		token := m[1]
		if len(token) > MaxLinkLength {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		links = append(links, token)
	}
	return links
}

// ResultsURL builds the results page address for a match token.
func ResultsURL(baseURL, link string) string {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return baseURL + link
}
