package checker

import "time"

// Exit statuses returned by Summary.ExitCode.
const (
	ExitOK       = 0
	ExitMismatch = 1
	ExitError    = 2
)

type Summary struct {
	Total       int           `json:"total"`
	Passed      int           `json:"passed"`
	Mismatched  int           `json:"mismatched"`
	Errored     int           `json:"errored"`
	TotalTime   time.Duration `json:"total_time"`
	AverageTime time.Duration `json:"average_time"`
	MinTime     time.Duration `json:"min_time"`
	MaxTime     time.Duration `json:"max_time"`
}

func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}

	timings := make([]time.Duration, 0, len(results))
	for _, r := range results {
		switch r.Status {
		case StatusOK:
			s.Passed++
		case StatusMismatch:
			s.Mismatched++
		default:
			s.Errored++
		}
		timings = append(timings, r.Duration)
		s.TotalTime += r.Duration
	}

	s.AverageTime = calculateAverage(timings)
	s.MinTime = calculateMin(timings)
	s.MaxTime = calculateMax(timings)
	return s
}

func (s Summary) OK() bool {
	return s.Passed == s.Total
}

// ExitCode is ExitError if any key could not be checked, ExitMismatch if any
// key does not match its claim, ExitOK otherwise.
func (s Summary) ExitCode() int {
	switch {
	case s.Errored > 0:
		return ExitError
	case s.Mismatched > 0:
		return ExitMismatch
	default:
		return ExitOK
	}
}

func calculateAverage(timings []time.Duration) time.Duration {
	if len(timings) == 0 {
		return 0
	}

	var sum time.Duration
	for _, t := range timings {
		sum += t
	}
	return sum / time.Duration(len(timings))
}

func calculateMin(timings []time.Duration) time.Duration {
	if len(timings) == 0 {
		return 0
	}

	min := timings[0]
	for _, t := range timings[1:] {
		if t < min {
			min = t
		}
	}
	return min
}

func calculateMax(timings []time.Duration) time.Duration {
	if len(timings) == 0 {
		return 0
	}

	max := timings[0]
	for _, t := range timings[1:] {
		if t > max {
			max = t
		}
	}
	return max
}
