package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/siherrmann/captioner/helper"
)

// Metadata represents JSONB metadata stored in PostgreSQL
type Metadata map[string]interface{}

// Value implements the driver.Valuer interface for database storage
func (m Metadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface for database retrieval
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = Metadata{}
		return nil
	}

	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return helper.NewError("byte assertion", errors.New("type assertion to []byte failed"))
	}

	return json.Unmarshal(b, m)
}

// MetadataFromResult flattens the structured parts of a pipeline result
// (captions, consensus, candidate selection, evaluation) into JSONB metadata.
func MetadataFromResult(result *PipelineResult) (Metadata, error) {
	if result == nil {
		return Metadata{}, nil
	}

	b, err := json.Marshal(struct {
		Captions   CaptionSet          `json:"captions"`
		Consensus  *ConsensusResult    `json:"consensus"`
		ToTDebug   *CandidateSelection `json:"tot_debug,omitempty"`
		Evaluation Evaluation          `json:"evaluation,omitempty"`
	}{
		Captions:   result.Captions,
		Consensus:  result.Consensus,
		ToTDebug:   result.ToTDebug,
		Evaluation: result.Evaluation,
	})
	if err != nil {
		return nil, helper.NewError("marshal result", err)
	}

	m := Metadata{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, helper.NewError("unmarshal result", err)
	}
	return m, nil
}
