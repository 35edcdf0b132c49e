package render

import (
	"encoding/json"

	"github.com/dkoosis/tally/pkg/stats"
)

// JSON renders summaries as structured JSON for automation.
type JSON struct{}

// NewJSON creates a JSON renderer.
func NewJSON() *JSON {
	return &JSON{}
}

// jsonOutput is the top-level JSON structure.
type jsonOutput struct {
	Version string         `json:"version"`
	RunID   string         `json:"run_id,omitempty"`
	Counts  map[string]int `json:"counts"`
	Errored []string       `json:"errored,omitempty"`
	Failed  []string       `json:"failed,omitempty"`
}

// Render formats the summary as indented JSON. Counts keep the snapshot's
// zero-omission rule; an empty run yields an empty object.
func (j *JSON) Render(s Summary) string {
	out := jsonOutput{
		Version: "1.0",
		RunID:   s.RunID,
		Counts:  make(map[string]int, len(s.Counts)),
		Errored: s.Failures[stats.Errored],
		Failed:  s.Failures[stats.Failed],
	}
	for k, v := range s.Counts {
		out.Counts[k] = v
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		errJSON, _ := json.Marshal(map[string]string{"error": err.Error()})
		return string(errJSON)
	}
	return string(data) + "\n"
}
