package output

import (
	"fmt"
	"io"

	"github.com/user/leekcheck/internal/checker"
	"github.com/user/leekcheck/pkg/sysinfo"
)

type Data struct {
	SystemInfo *sysinfo.SystemInfo
	Results    []checker.Result
	Summary    checker.Summary
	Config     checker.Config
}

// NewData summarizes results into a Data ready for formatting.
func NewData(info *sysinfo.SystemInfo, config checker.Config, results []checker.Result) Data {
	return Data{
		SystemInfo: info,
		Results:    results,
		Summary:    checker.Summarize(results),
		Config:     config,
	}
}

type Formatter interface {
	Format(w io.Writer, data Data) error
}

func NewFormatter(format string) (Formatter, error) {
	switch format {
	case "text":
		return &TextFormatter{}, nil
	case "table":
		return &TableFormatter{}, nil
	case "json":
		return &JSONFormatter{}, nil
	case "csv":
		return &CSVFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
