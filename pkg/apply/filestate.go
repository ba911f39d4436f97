package apply

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// fileState stages the content of one target file while sequential records
// for that file are applied. Later records see earlier edits; nothing
// touches disk until writeBack.
type fileState struct {
	path            string // absolute
	lines           []string
	trailingNewline bool
	dirty           bool
}

// loadFileState reads the current content of path into a line buffer,
// remembering whether the file ended with a newline so write-back preserves
// it byte for byte when nothing else changed.
func loadFileState(path string) (*fileState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	content := string(data)
	st := &fileState{
		path:            path,
		trailingNewline: strings.HasSuffix(content, "\n"),
	}
	content = strings.TrimSuffix(content, "\n")
	if content != "" {
		st.lines = strings.Split(content, "\n")
	}
	return st, nil
}

// newFileState builds the staged content of a file to be created
func newFileState(path string, lines []string) *fileState {
	return &fileState{
		path:            path,
		lines:           append([]string(nil), lines...),
		trailingNewline: true,
		dirty:           true,
	}
}

// replaceRange substitutes lines[start:end] with repl. Bounds are the
// matcher's and are trusted here.
func (s *fileState) replaceRange(start, end int, repl []string) {
	updated := make([]string, 0, len(s.lines)-(end-start)+len(repl))
	updated = append(updated, s.lines[:start]...)
	updated = append(updated, repl...)
	updated = append(updated, s.lines[end:]...)
	s.lines = updated
	s.dirty = true
}

// content renders the staged lines as file bytes
func (s *fileState) content() []byte {
	joined := strings.Join(s.lines, "\n")
	if s.trailingNewline && joined != "" {
		joined += "\n"
	}
	return []byte(joined)
}

// writeBack persists the staged content atomically: the whole buffer lands
// via a temp file and rename, or the target is left untouched.
func (s *fileState) writeBack(ctx context.Context) error {
	if !s.dirty {
		return nil
	}
	logger := zerolog.Ctx(ctx)

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return errors.Errorf("creating parent directory: %w", err)
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, s.content(), 0644); err != nil {
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		_ = os.Remove(tempPath)
		return errors.Errorf("renaming temp file: %w", err)
	}

	logger.Debug().Str("path", s.path).Int("lines", len(s.lines)).Msg("wrote file")
	s.dirty = false
	return nil
}
