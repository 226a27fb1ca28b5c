package attachment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/lhoang/mailbridge/internal/model"
	"github.com/lhoang/mailbridge/internal/security"
	"github.com/lhoang/mailbridge/internal/validate"
)

// mailClient is the slice of the bridge the pipeline needs.
type mailClient interface {
	GetAttachments(ctx context.Context, id string) ([]model.Attachment, error)
	SaveAttachments(ctx context.Context, id, dir string, indices []int) (int, error)
}

// Pipeline saves a message attachment into a scoped temporary
// directory, extracts its text, and removes the directory again on
// every exit path.
type Pipeline struct {
	client mailClient
	cfg    model.AttachmentConfig
	logger zerolog.Logger
}

// NewPipeline builds a pipeline over a mail client.
func NewPipeline(client mailClient, cfg model.AttachmentConfig, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		client: client,
		cfg:    cfg,
		logger: logger.With().Str("component", "attachment").Logger(),
	}
}

// ExtractText saves the index-th attachment of a message and returns
// its extracted text. The attachment's reported size is checked
// against the configured maximum before anything is written.
func (p *Pipeline) ExtractText(ctx context.Context, messageID string, index int) (Result, error) {
	atts, err := p.client.GetAttachments(ctx, messageID)
	if err != nil {
		return Result{}, err
	}
	if index < 0 || index >= len(atts) {
		return Result{}, fmt.Errorf("attachment index %d out of range, message has %d", index, len(atts))
	}

	att := atts[index]
	if err := security.ValidateAttachmentSize(att.Size, p.cfg.MaxSize); err != nil {
		return Result{}, err
	}

	dir, err := os.MkdirTemp("", "mailbridge-attachments-")
	if err != nil {
		return Result{}, fmt.Errorf("creating scratch directory: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			p.logger.Warn().Err(rmErr).Str("dir", dir).Msg("failed to remove scratch directory")
		}
	}()

	saved, err := p.client.SaveAttachments(ctx, messageID, dir, []int{index})
	if err != nil {
		return Result{}, err
	}
	if saved == 0 {
		return Result{}, fmt.Errorf("attachment %d of message was not saved", index)
	}

	path, err := locateSaved(dir, att.Name)
	if err != nil {
		return Result{}, err
	}

	res, err := ExtractFile(path, p.cfg.MaxExtractSize)
	if err != nil {
		return Result{}, err
	}

	p.logger.Debug().
		Str("name", att.Name).
		Int("chars", len(res.Text)).
		Bool("truncated", res.Truncated).
		Msg("attachment text extracted")
	return res, nil
}

// locateSaved finds the file written for an attachment. The bridge
// writes under the sanitized name; if that exact file is absent the
// single file present in the directory is taken instead.
func locateSaved(dir, name string) (string, error) {
	want := filepath.Join(dir, validate.Filename(name))
	if _, err := os.Stat(want); err == nil {
		return want, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading scratch directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) != 1 {
		return "", fmt.Errorf("saved attachment %q not found", name)
	}
	return files[0], nil
}
