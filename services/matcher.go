package services

import (
	"strings"

	"slack-mention-relay/models"
)

// MatchMentions returns the candidates whose GitHub username equals one of the
// tokens, ignoring case. Tokens may still carry their '@'.
//
// Every (token, candidate) pair is compared, so a user mentioned twice is
// returned twice. Candidates without a username are not linked yet and never match.
func MatchMentions(tokens []string, candidates []models.UserRecord) []models.UserRecord {
	matched := []models.UserRecord{}
	if len(tokens) == 0 || len(candidates) == 0 {
		return matched
	}

	for _, token := range tokens {
		login := normalizeLogin(token)
		if login == "" {
			continue
		}
		for _, candidate := range candidates {
			if candidate.GithubUsername == "" {
				continue
			}
			if strings.EqualFold(login, candidate.GithubUsername) {
				matched = append(matched, candidate)
			}
		}
	}
	return matched
}

// UniqueRecipients drops repeated Slack users, keeping first occurrences.
func UniqueRecipients(targets []models.UserRecord) []models.UserRecord {
	seen := make(map[string]bool, len(targets))
	unique := make([]models.UserRecord, 0, len(targets))
	for _, target := range targets {
		if seen[target.SlackUserID] {
			continue
		}
		seen[target.SlackUserID] = true
		unique = append(unique, target)
	}
	return unique
}
