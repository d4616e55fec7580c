package services

import (
	"regexp"
	"strings"
)

// GitHub login grammar: alphanumerics with single interior hyphens.
// The pattern caps repetitions, not characters, so hyphenated matches can run
// past maxLoginLength and are dropped by ExtractMentions.
// No boundary is asserted before '@', so "email@example.com" yields "@example".
var mentionPattern = regexp.MustCompile(`(?i)@([a-z0-9](?:-?[a-z0-9]){0,38})`)

const maxLoginLength = 39

// ExtractMentions returns the @login tokens in body, left to right, each keeping its '@'.
func ExtractMentions(body string) []string {
	if body == "" {
		return nil
	}
	var mentions []string
	for _, token := range mentionPattern.FindAllString(body, -1) {
		if len(token)-1 > maxLoginLength {
			continue
		}
		mentions = append(mentions, token)
	}
	return mentions
}

// NormalizeMentions strips the leading '@' and lower-cases each token.
func NormalizeMentions(tokens []string) []string {
	normalized := make([]string, 0, len(tokens))
	for _, token := range tokens {
		normalized = append(normalized, normalizeLogin(token))
	}
	return normalized
}

func normalizeLogin(login string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(login), "@"))
}
