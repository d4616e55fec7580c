// Package servicestest provides in-memory fakes of the services interfaces.
package servicestest

import (
	"context"
	"sync"
	"time"

	"slack-mention-relay/services"
)

// ChatSession implements services.ChatSession in memory.
type ChatSession struct {
	mu sync.Mutex

	Members        []services.Member
	ListMembersErr error
	// Latency delays PostMessage per recipient channel.
	Latency map[string]time.Duration
	// FailOpen and FailPost make the call fail for the given user / channel.
	FailOpen map[string]error
	FailPost map[string]error

	Opened       []string
	SentMessages []Message
	ListCalls    int
}

// Message represents a message posted to a channel.
type Message struct {
	ChannelID string
	Text      string
}

// NewChatSession creates a session whose team has the given members.
func NewChatSession(members ...services.Member) *ChatSession {
	return &ChatSession{Members: members}
}

func (m *ChatSession) ListMembers(ctx context.Context) ([]services.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListCalls++
	if m.ListMembersErr != nil {
		return nil, m.ListMembersErr
	}
	return append([]services.Member(nil), m.Members...), nil
}

// OpenDirectMessage returns "D" + user id as the IM channel.
func (m *ChatSession) OpenDirectMessage(ctx context.Context, slackUserID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Opened = append(m.Opened, slackUserID)
	if err := m.FailOpen[slackUserID]; err != nil {
		return "", err
	}
	return "D" + slackUserID, nil
}

func (m *ChatSession) PostMessage(ctx context.Context, channelID, text string) error {
	m.mu.Lock()
	delay := m.Latency[channelID]
	m.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailPost[channelID]; err != nil {
		return err
	}
	m.SentMessages = append(m.SentMessages, Message{ChannelID: channelID, Text: text})
	return nil
}

// Messages returns a copy of the messages posted so far.
func (m *ChatSession) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.SentMessages...)
}

// GetLastMessage returns the last message sent, or an empty Message if none.
func (m *ChatSession) GetLastMessage() Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.SentMessages) == 0 {
		return Message{}
	}
	return m.SentMessages[len(m.SentMessages)-1]
}

var _ services.ChatSession = (*ChatSession)(nil)
