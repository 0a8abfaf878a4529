package email

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._\-]+`)

// DevSender writes emails to a local directory instead of sending them.
// Each send produces a .html file with the body and a .json file with
// the full parameters, named by timestamp and recipient.
type DevSender struct {
	dir string
}

// NewDevSender creates a sender that writes into dir, creating it if needed.
func NewDevSender(dir string) (*DevSender, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: directory is required", ErrInvalidConfig)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create directory: %w", ErrInvalidConfig, err)
	}
	return &DevSender{dir: dir}, nil
}

// SendEmail writes the message to disk.
func (s *DevSender) SendEmail(_ context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	base := fmt.Sprintf("%s_%s",
		time.Now().UTC().Format("20060102T150405.000000000"),
		unsafeFilenameChars.ReplaceAllString(params.SendTo, "_"),
	)

	if err := os.WriteFile(filepath.Join(s.dir, base+".html"), []byte(params.BodyHTML), 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToSendEmail, err)
	}

	meta, err := json.MarshalIndent(params, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToSendEmail, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, base+".json"), meta, 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToSendEmail, err)
	}
	return nil
}
