package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/inqbatorchris/fieldsync/internal/filex"
)

// PhotoHandle is a display handle over a photo's bytes: a temp file the UI
// can point an image view at. The caller owns the file and must Release it.
type PhotoHandle struct {
	Path     string
	MimeType string
}

// Release removes the temp file behind the handle.
func (h *PhotoHandle) Release() error {
	if h.Path == "" {
		return nil
	}
	return os.Remove(h.Path)
}

// ResolvePhotoForDisplay materializes the photo's content as a temp file and
// returns a handle to it. Handles are independent; resolving the same photo
// twice yields two files.
func (s *CaptureService) ResolvePhotoForDisplay(ctx context.Context, photoID string) (*PhotoHandle, error) {
	p, err := s.repos.Photos.GetByID(ctx, photoID)
	if err != nil {
		return nil, err
	}

	dir, err := filex.EnsureSubDir(os.TempDir(), "fieldsync-photos")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare display dir: %w", err)
	}

	ext := filepath.Ext(p.Filename)
	f, err := os.CreateTemp(dir, "photo-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("failed to create display file: %w", err)
	}
	if _, err := f.Write(p.Content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to write display file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to close display file: %w", err)
	}

	return &PhotoHandle{Path: f.Name(), MimeType: p.MimeType}, nil
}
