package change

import (
	"bytes"
	"encoding/json"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 📦 LineChange is one before/after line block inside a file entry
type LineChange struct {
	BeforeLines []string `json:"original_lines"`
	AfterLines  []string `json:"changed_lines"`
}

// 📦 FileEntry groups the requested changes for one target file
type FileEntry struct {
	File    string       `json:"file"`
	Action  Action       `json:"action"`
	Changes []LineChange `json:"changes"`
}

// 📦 Batch is the external input surface: file entries plus an optional
// free-text message intended for the caller's version-control layer. The
// message is only checked for non-emptiness when present and is otherwise
// passed through unmodified.
type Batch struct {
	FileEntries []FileEntry `json:"file_entries"`
	Message     *string     `json:"message,omitempty"`
}

// 📦 Group is the per-file unit of work the applicator processes
type Group struct {
	File    string
	Records []*Record
}

// ParseBatch decodes a JSON change batch. Malformed input is a caller fault
// and is returned as an error rather than an outcome.
func ParseBatch(data []byte) (*Batch, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	var batch Batch
	if err := decoder.Decode(&batch); err != nil {
		return nil, errors.Errorf("parsing change batch: %w", err)
	}
	if len(batch.FileEntries) == 0 {
		return nil, errors.Errorf("change batch must contain a non-empty file_entries array")
	}
	if batch.Message != nil && strings.TrimSpace(*batch.Message) == "" {
		return nil, errors.Errorf("change batch message must be non-empty when present")
	}
	return &batch, nil
}

// CommitMessage returns the batch message, or "" when none was supplied
func (b *Batch) CommitMessage() string {
	if b.Message == nil {
		return ""
	}
	return *b.Message
}

// Groups expands the batch into per-file record groups, keyed by target path
// and ordered by first appearance. Entries naming the same file are merged
// into one group so their records always run sequentially against shared
// content; separate groups share no target file. A delete_file entry carries
// no line blocks and expands to a single record; entries with no changes
// still expand to one record so validation can report the structural problem.
func (b *Batch) Groups() []Group {
	groups := make([]Group, 0, len(b.FileEntries))
	byFile := make(map[string]int, len(b.FileEntries))
	for _, entry := range b.FileEntries {
		i, seen := byFile[entry.File]
		if !seen {
			i = len(groups)
			byFile[entry.File] = i
			groups = append(groups, Group{File: entry.File})
		}
		group := &groups[i]
		if len(entry.Changes) == 0 {
			group.Records = append(group.Records, &Record{
				File:   entry.File,
				Action: entry.Action,
			})
		}
		for _, ch := range entry.Changes {
			group.Records = append(group.Records, &Record{
				File:        entry.File,
				Action:      entry.Action,
				BeforeLines: ch.BeforeLines,
				AfterLines:  ch.AfterLines,
			})
		}
	}
	return groups
}
