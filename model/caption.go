package model

// Caption is one model's description of an image
type Caption struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// CaptionSet is an ordered collection of captions keyed by unique source.
// Iteration order is insertion order and drives every ordered output downstream.
type CaptionSet []Caption

// NewCaptionSet builds a CaptionSet from alternating source, text pairs.
// A repeated source replaces the earlier text in place.
func NewCaptionSet(pairs ...string) CaptionSet {
	set := CaptionSet{}
	for i := 0; i+1 < len(pairs); i += 2 {
		set = set.With(pairs[i], pairs[i+1])
	}
	return set
}

// Len returns the number of sources
func (s CaptionSet) Len() int {
	return len(s)
}

// Sources returns the source identifiers in order
func (s CaptionSet) Sources() []string {
	sources := make([]string, len(s))
	for i, c := range s {
		sources[i] = c.Source
	}
	return sources
}

// Texts returns the caption texts in order
func (s CaptionSet) Texts() []string {
	texts := make([]string, len(s))
	for i, c := range s {
		texts[i] = c.Text
	}
	return texts
}

// Get returns the caption text for a source
func (s CaptionSet) Get(source string) (string, bool) {
	for _, c := range s {
		if c.Source == source {
			return c.Text, true
		}
	}
	return "", false
}

// With returns a copy of the set with source set to text.
// An existing source keeps its position, a new one is appended.
func (s CaptionSet) With(source, text string) CaptionSet {
	out := make(CaptionSet, len(s), len(s)+1)
	copy(out, s)
	for i := range out {
		if out[i].Source == source {
			out[i].Text = text
			return out
		}
	}
	return append(out, Caption{Source: source, Text: text})
}

// Image identifies the picture a pipeline run captions.
// Name is the key used to look up reference captions and may be empty.
type Image struct {
	Path string `json:"path"`
	Name string `json:"name"`
}
