package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"mkvkeep/internal/fileutil"
)

type jsonBackend struct {
	path string
}

func (b *jsonBackend) load(_ context.Context) (Document, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Document{}, nil
		}
		return Document{}, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decode state document: %w", err)
	}
	return doc, nil
}

func (b *jsonBackend) save(_ context.Context, doc Document) error {
	if doc.ProcessedFiles == nil {
		doc.ProcessedFiles = []string{}
	}
	if doc.FailedFiles == nil {
		doc.FailedFiles = map[string]string{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state document: %w", err)
	}
	return fileutil.WriteFileAtomic(b.path, append(data, '\n'), 0o644)
}

func (b *jsonBackend) close() error { return nil }
