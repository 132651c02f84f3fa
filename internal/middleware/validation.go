package middleware

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/capitalize-ai/theology-chat/internal/model"
)

const (
	maxMessageLength = 100000
	maxHistoryLength = 200
	maxTopicLength   = 256
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ValidateMessageContent validates message content.
func ValidateMessageContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return errors.New("message is required")
	}
	if len(content) > maxMessageLength {
		return errors.New("message exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("message must be valid UTF-8")
	}
	return nil
}

// ValidateSessionID validates a session ID. Session IDs end up in NATS
// subjects, so dots and wildcards are rejected.
func ValidateSessionID(id string) error {
	if id == "" {
		return errors.New("sessionId is required")
	}
	if !sessionIDPattern.MatchString(id) {
		return errors.New("invalid sessionId format")
	}
	return nil
}

// ValidateHistory validates client supplied conversation history.
func ValidateHistory(turns []model.HistoryTurn) error {
	if len(turns) > maxHistoryLength {
		return errors.New("conversationHistory exceeds maximum length")
	}
	for _, t := range turns {
		if t.Role != model.RoleUser && t.Role != model.RoleAssistant {
			return errors.New("conversationHistory role must be user or assistant")
		}
		if !utf8.ValidString(t.Content) {
			return errors.New("conversationHistory content must be valid UTF-8")
		}
	}
	return nil
}

// ValidateTopic validates a lesson topic.
func ValidateTopic(topic string) error {
	if strings.TrimSpace(topic) == "" {
		return errors.New("topic is required")
	}
	if len(topic) > maxTopicLength {
		return errors.New("topic exceeds maximum length")
	}
	if !utf8.ValidString(topic) {
		return errors.New("topic must be valid UTF-8")
	}
	return nil
}
