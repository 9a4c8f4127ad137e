package checker

import "time"

type Config struct {
	Parallel     int  `json:"parallel" yaml:"parallel"`
	FailFast     bool `json:"fail_fast" yaml:"fail_fast"`
	ShowProgress bool `json:"show_progress" yaml:"show_progress"`
	Timeout      int  `json:"timeout" yaml:"timeout"`
	Verbose      bool `json:"verbose" yaml:"verbose"`
}

type Status string

const (
	StatusOK       Status = "ok"
	StatusMismatch Status = "mismatch"
	StatusError    Status = "error"
)

type Result struct {
	Source    string        `json:"source"`
	Claimed   string        `json:"claimed"`
	Address   string        `json:"address,omitempty"`
	Status    Status        `json:"status"`
	Error     string        `json:"error,omitempty"`
	KeyBits   int           `json:"key_bits,omitempty"`
	Exponent  string        `json:"exponent,omitempty"`
	PublicKey string        `json:"public_key,omitempty"`
	Duration  time.Duration `json:"duration"`
	CheckedAt time.Time     `json:"checked_at"`
}

func (r Result) OK() bool {
	return r.Status == StatusOK
}

type ProgressUpdate struct {
	Current    int     `json:"current"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
	Rate       float64 `json:"rate"`
	Source     string  `json:"source"`
	Status     Status  `json:"status"`
}
