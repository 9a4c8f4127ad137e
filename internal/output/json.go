package output

import (
	"encoding/json"
	"io"
	"time"
)

type JSONFormatter struct{}

type JSONOutput struct {
	Timestamp  time.Time `json:"timestamp"`
	SystemInfo any       `json:"system_info"`
	Config     any       `json:"config"`
	Results    any       `json:"results"`
	Summary    any       `json:"summary"`
	ExitCode   int       `json:"exit_code"`
}

func (j *JSONFormatter) Format(w io.Writer, data Data) error {
	output := JSONOutput{
		Timestamp:  time.Now(),
		SystemInfo: data.SystemInfo,
		Config:     data.Config,
		Results:    data.Results,
		Summary:    data.Summary,
		ExitCode:   data.Summary.ExitCode(),
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
