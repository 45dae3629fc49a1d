package models

import (
	"errors"
	"time"
)

// Message represents an individual entry of the conversation log. The role is fixed at creation. The
// content of a model message is replaced wholesale while its response streams in; user messages never
// change after creation.
type Message struct {
	ID      string
	Role    Role
	Content string

	// Image is the optional data URL ("data:<mime>;base64,<payload>") attached to a user message.
	Image string
}

// Part is a single element of an outbound model request. Exactly one of Text or InlineData is set.
type Part struct {
	Text       string
	InlineData *Blob
}

// Blob is inline binary data sent along with a request.
type Blob struct {
	MIMEType string
	// Data is the base64 payload, kept in its encoded form.
	Data string
}

// Artifact is an exported model turn kept in the archive. Content is the raw model output and Mode is
// the key of the generation mode that produced it.
type Artifact struct {
	ID        string
	Title     string
	Mode      string
	Prompt    string
	Content   string
	CreatedAt time.Time
}

// ErrArtifactNotFound is returned by archives when no artifact is stored under the requested id.
var ErrArtifactNotFound = errors.New("artifact not found")

// Role represents the role of a message participant.
type Role string

const (
	// RoleUser represents a user message. It holds the prompt text and, optionally, an image.
	RoleUser Role = "user"
	// RoleModel represents a generated response.
	RoleModel Role = "model"
)

// IsImage reports whether the part carries inline data.
func (p Part) IsImage() bool {
	return p.InlineData != nil
}

// DataURL re-assembles the blob into a data URL.
func (b Blob) DataURL() string {
	return "data:" + b.MIMEType + ";base64," + b.Data
}
