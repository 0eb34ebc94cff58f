package service

import (
	"encoding/base64"
	"fmt"
	"mime"
	"strings"

	"github.com/noah-isme/makeups-api/internal/models"
	appErrors "github.com/noah-isme/makeups-api/pkg/errors"
)

// DecodedAttachment is an attachment payload turned back into bytes.
type DecodedAttachment struct {
	Label    string
	MimeType string
	Data     []byte
}

// AttachmentDecoder validates and decodes base64 attachment payloads.
type AttachmentDecoder struct {
	allowed  map[string]struct{}
	maxBytes int64
}

// NewAttachmentDecoder builds a decoder accepting the given media types. An
// empty allow-list accepts any well-formed media type; maxBytes <= 0 disables
// the size limit.
func NewAttachmentDecoder(allowedMIMEs []string, maxBytes int64) *AttachmentDecoder {
	allowed := make(map[string]struct{}, len(allowedMIMEs))
	for _, raw := range allowedMIMEs {
		mediaType, _, err := mime.ParseMediaType(raw)
		if err != nil {
			continue
		}
		allowed[mediaType] = struct{}{}
	}
	return &AttachmentDecoder{allowed: allowed, maxBytes: maxBytes}
}

// Decode validates the media type and decodes the payload of a.
func (d *AttachmentDecoder) Decode(a models.Attachment) (*DecodedAttachment, error) {
	mediaType, err := d.mediaType(a.MimeType)
	if err != nil {
		return nil, err
	}

	payload := stripBase64(a.Data)
	unpadded := strings.TrimRight(payload, "=")
	if unpadded == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidAttachment, "attachment payload is empty")
	}
	if len(payload)-len(unpadded) > 2 {
		return nil, appErrors.ErrInvalidAttachment
	}
	if d.maxBytes > 0 && int64(base64.RawStdEncoding.DecodedLen(len(unpadded))) > d.maxBytes {
		return nil, appErrors.Clone(appErrors.ErrInvalidAttachment, fmt.Sprintf("attachment exceeds %d bytes", d.maxBytes))
	}

	data, err := base64.RawStdEncoding.DecodeString(unpadded)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrInvalidAttachment, "")
	}

	return &DecodedAttachment{
		Label:    a.Label(),
		MimeType: mediaType,
		Data:     data,
	}, nil
}

func (d *AttachmentDecoder) mediaType(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", appErrors.Clone(appErrors.ErrUnsupportedMedia, "attachment media type is missing")
	}
	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return "", appErrors.WrapAs(err, appErrors.ErrUnsupportedMedia, "")
	}
	if len(d.allowed) == 0 {
		return mediaType, nil
	}
	if _, ok := d.allowed[mediaType]; !ok {
		return "", appErrors.Clone(appErrors.ErrUnsupportedMedia, fmt.Sprintf("media type %s is not supported", mediaType))
	}
	return mediaType, nil
}

// stripBase64 drops the ASCII whitespace browsers tolerate inside base64 text.
func stripBase64(raw string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			return -1
		}
		return r
	}, raw)
}
