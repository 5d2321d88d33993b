package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/siherrmann/captioner/helper"
	"github.com/siherrmann/captioner/model"
)

// References maps an image name to its ground truth captions
type References map[string][]string

// LoadReferences reads a reference file of the form {"image.jpg": [{"caption": "..."}]}.
// Blank captions are dropped.
func LoadReferences(path string) (References, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, helper.NewError("read reference captions", err)
	}

	var raw map[string][]model.ReferenceCaption
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, helper.NewError("parse reference captions", err)
	}

	references := make(References, len(raw))
	for image, captions := range raw {
		for _, c := range captions {
			if text := strings.TrimSpace(c.Caption); text != "" {
				references[image] = append(references[image], text)
			}
		}
	}

	return references, nil
}

// ReferenceStore loads a reference file on first use and keeps it for the process.
// A missing file means no image has references.
type ReferenceStore struct {
	path       string
	once       sync.Once
	references References
	err        error
}

// NewReferenceStore creates a lazily loaded store for path
func NewReferenceStore(path string) *ReferenceStore {
	return &ReferenceStore{path: path}
}

// References returns the captions of an image, or nothing when it has none
func (s *ReferenceStore) References(ctx context.Context, imageName string) ([]string, error) {
	s.once.Do(func() {
		s.references, s.err = LoadReferences(s.path)
		if errors.Is(s.err, fs.ErrNotExist) {
			s.references, s.err = References{}, nil
		}
	})
	if s.err != nil {
		return nil, s.err
	}
	if imageName == "" {
		return nil, nil
	}
	return append([]string(nil), s.references[imageName]...), nil
}
