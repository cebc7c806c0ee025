package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Sternrassler/wubba/pkg/catalog"
	"github.com/spf13/cobra"
)

// ErrAmbiguousImageRequest is reported when an image is requested for a
// result set that does not hold exactly one character. It never fails the
// command.
var ErrAmbiguousImageRequest = errors.New("image download needs exactly one result")

// imageHook returns the post-render step of --image: save the image of the
// single character printed and report where it went.
func (a *app) imageHook(cmd *cobra.Command) func([]catalog.Row) {
	return func(rows []catalog.Row) {
		path, err := a.saveImage(cmd.Context(), rows)
		if err != nil {
			a.logger.Warn().Err(err).Msg("Image not saved")
			warn(cmd.ErrOrStderr(), err)
			return
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Image saved to %s\n", path)
	}
}

// saveImage downloads the image of the only character in rows to
// <image dir>/<id>.jpeg.
func (a *app) saveImage(ctx context.Context, rows []catalog.Row) (string, error) {
	if len(rows) != 1 {
		return "", fmt.Errorf("%w: got %d", ErrAmbiguousImageRequest, len(rows))
	}
	character, ok := rows[0].(catalog.Character)
	if !ok {
		return "", fmt.Errorf("%w: result is not a character", ErrAmbiguousImageRequest)
	}
	if character.Image == "" {
		return "", fmt.Errorf("character %d has no image", character.ID)
	}

	if err := os.MkdirAll(a.cfg.ImageDir, 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}
	path := filepath.Join(a.cfg.ImageDir, strconv.Itoa(character.ID)+".jpeg")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}

	n, err := a.client.Download(ctx, character.Image, f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("download image: %w", err)
	}

	a.logger.Debug().Str("path", path).Int64("bytes", n).Msg("Image saved")
	return path, nil
}
