package models

import (
	"strings"
	"time"
)

// AttachmentKeyPrefix prefixes attachment storage keys.
const AttachmentKeyPrefix = "attachment-"

// Attachment is a transport encoded proof document linked to a request.
type Attachment struct {
	RequestID string `db:"request_id" json:"-"`
	Key       string `db:"key" json:"key"`
	Data      string `db:"data" json:"-"`
	MimeType  string `db:"mime_type" json:"mimeType"`
}

// Label is the storage key without its prefix.
func (a Attachment) Label() string {
	return AttachmentLabel(a.Key)
}

// AttachmentLabel strips the storage prefix from a key.
func AttachmentLabel(key string) string {
	return strings.TrimPrefix(key, AttachmentKeyPrefix)
}

// AttachmentHandle is a transient, dereferenceable link to a decoded attachment.
type AttachmentHandle struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	MimeType  string    `json:"mimeType"`
	SizeBytes int64     `json:"sizeBytes"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AttachmentEntry is one row of the detail view's attachment panel. Exactly
// one of Handle or Error is set.
type AttachmentEntry struct {
	Label  string            `json:"label"`
	Handle *AttachmentHandle `json:"handle,omitempty"`
	Error  *string           `json:"error,omitempty"`
	Code   string            `json:"code,omitempty"`
}
