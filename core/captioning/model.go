package captioning

import "context"

// Model is one vision-language captioning model
type Model interface {
	Name() string
	Caption(ctx context.Context, imagePath string) (string, error)
}

// StaticModel always returns the same caption
type StaticModel struct {
	name    string
	caption string
}

// NewStaticModel creates a model that answers every image with caption
func NewStaticModel(name, caption string) *StaticModel {
	return &StaticModel{name: name, caption: caption}
}

// Name returns the source name
func (m *StaticModel) Name() string {
	return m.name
}

// Caption returns the fixed caption
func (m *StaticModel) Caption(ctx context.Context, imagePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return m.caption, nil
}
