package hub

import (
	"chatline-server/internal/domain"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validateSendMessage checks a 'message' payload before anything is
// persisted. Failures surface to the sender only.
func validateSendMessage(p *domain.SendMessagePayload) error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: invalid message fields", domain.ErrValidation)
	}

	msgType := domain.MessageType(p.Type)
	if msgType == "" {
		msgType = domain.MessageText
	}

	switch msgType {
	case domain.MessageText, domain.MessageEmoji:
		if strings.TrimSpace(p.Text) == "" {
			return fmt.Errorf("%w: message text is required", domain.ErrValidation)
		}
	case domain.MessageGif, domain.MessageSticker:
		if strings.TrimSpace(p.Text) == "" && p.FileURL == "" {
			return fmt.Errorf("%w: a %s URL is required", domain.ErrValidation, msgType)
		}
	case domain.MessageFile:
		if p.FileURL == "" {
			return fmt.Errorf("%w: file URL is required", domain.ErrValidation)
		}
		if p.FileName == "" {
			return fmt.Errorf("%w: file name is required", domain.ErrValidation)
		}
		if p.FileSize <= 0 {
			return fmt.Errorf("%w: file size must be positive", domain.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unsupported message type %q", domain.ErrValidation, p.Type)
	}
	return nil
}

// validateLocation checks a 'location' payload: latitude within [-90, 90],
// longitude within [-180, 180].
func validateLocation(p *domain.SendLocationPayload) error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: coordinates out of range", domain.ErrValidation)
	}
	return nil
}

// validateWebview checks a 'webview' payload for a usable URL.
func validateWebview(p *domain.SendWebviewPayload) error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: a valid URL is required", domain.ErrValidation)
	}
	return nil
}
