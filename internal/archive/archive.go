// Package archive keeps timestamped copies of finalized clips on disk.
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rbright/recast/internal/audio"
	"github.com/rbright/recast/internal/logging"
)

// Dir writes clips under Root as <kind>-<timestamp><ext>.
type Dir struct {
	Root string
	now  func() time.Time
}

// New returns a Dir rooted at root, or at <state dir>/archive when root is empty.
func New(root string) (*Dir, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		stateDir, err := logging.StateDir()
		if err != nil {
			return nil, fmt.Errorf("resolve archive dir: %w", err)
		}
		root = filepath.Join(stateDir, "archive")
	}
	return &Dir{Root: root, now: time.Now}, nil
}

// Archive writes clip and returns its path.
func (d *Dir) Archive(ctx context.Context, kind string, clip audio.Clip) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if clip.Empty() {
		return "", errors.New("archive: clip is empty")
	}
	kind = strings.TrimSpace(kind)
	if kind == "" || strings.ContainsAny(kind, `/\`) {
		return "", fmt.Errorf("archive: invalid kind %q", kind)
	}
	if err := os.MkdirAll(d.Root, 0o700); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}

	now := time.Now
	if d.now != nil {
		now = d.now
	}
	name := fmt.Sprintf("%s-%s%s", kind, now().Format("20060102-150405.000"), audio.Extension(clip.MIME))
	path := filepath.Join(d.Root, name)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("open archive file %q: %w", path, err)
	}
	if _, err := file.Write(clip.Data); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("write archive file %q: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close archive file %q: %w", path, err)
	}
	return path, nil
}
