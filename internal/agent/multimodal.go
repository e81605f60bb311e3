package agent

// multimodal.go turns operator-supplied images into model parts.
//
// The chat panel sends images as data URLs (data:image/png;base64,...) or raw
// base64. The content type is detected from magic bytes via
// http.DetectContentType instead of trusting the declared type, which the
// browser controls. Supported: jpeg, png, gif, webp.

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/firebase/genkit/go/ai"
)

// MaxImageBytes is the largest decoded image the assistant accepts.
const MaxImageBytes = 10 << 20

// ErrNotAnImage indicates the supplied data is not a supported image.
var ErrNotAnImage = errors.New("data is not a supported image")

// ErrImageTooLarge indicates the decoded image exceeds MaxImageBytes.
var ErrImageTooLarge = errors.New("image exceeds size limit")

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ImagePart decodes an operator-supplied image and wraps it as a media part
// for a vision request. Accepts a full data URL or bare base64.
func ImagePart(imageData string) (*ai.Part, error) {
	payload := strings.TrimSpace(imageData)
	if payload == "" {
		return nil, fmt.Errorf("empty image data: %w", ErrNotAnImage)
	}

	// Strip a data URL wrapper; the declared type is re-checked below.
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ",")
		if idx < 0 {
			return nil, fmt.Errorf("malformed data URL: %w", ErrNotAnImage)
		}
		payload = payload[idx+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode base64 image: %w", ErrNotAnImage)
	}
	if len(raw) > MaxImageBytes {
		return nil, fmt.Errorf("image is %d bytes: %w", len(raw), ErrImageTooLarge)
	}

	// Magic-byte detection; extensions and declared types can be spoofed.
	mediaType := http.DetectContentType(raw)
	if !allowedImageTypes[mediaType] {
		return nil, fmt.Errorf("unsupported content type %s: %w", mediaType, ErrNotAnImage)
	}

	return ai.NewMediaPart(mediaType, "data:"+mediaType+";base64,"+base64.StdEncoding.EncodeToString(raw)), nil
}

// UserMessage builds the user message for one turn: the typed query plus any
// attached image.
func UserMessage(query string, imagePart *ai.Part) *ai.Message {
	if imagePart == nil {
		return ai.NewUserMessage(ai.NewTextPart(query))
	}
	return ai.NewUserMessage(imagePart, ai.NewTextPart(query))
}
