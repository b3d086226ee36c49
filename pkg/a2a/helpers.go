package a2a

import (
	"strings"

	"github.com/google/uuid"
)

// NewTextMessage builds a single-part text message with a fresh message id.
func NewTextMessage(role MessageRole, text string) Message {
	return Message{
		Role:      role,
		Parts:     []Part{{Kind: PartKindText, Text: text}},
		MessageID: uuid.New().String(),
		Kind:      "message",
	}
}

// NewTextArtifact wraps text in a single-part artifact.
func NewTextArtifact(name, text string) Artifact {
	return Artifact{
		ArtifactID: uuid.New().String(),
		Name:       name,
		Parts:      []Part{{Kind: PartKindText, Text: text}},
	}
}

// ExtractText returns the text content of a task's artifacts, joined with
// newlines. Empty string when the task has no text parts.
func ExtractText(task *Task) string {
	if task == nil {
		return ""
	}

	var texts []string
	for _, artifact := range task.Artifacts {
		for _, part := range artifact.Parts {
			if part.Kind == PartKindText && part.Text != "" {
				texts = append(texts, part.Text)
			}
		}
	}
	return strings.Join(texts, "\n")
}

// MessageText returns the concatenated text parts of a message.
func MessageText(msg Message) string {
	var texts []string
	for _, part := range msg.Parts {
		if part.Kind == PartKindText && part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, "\n")
}
