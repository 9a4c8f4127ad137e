package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

type CSVFormatter struct{}

func (c *CSVFormatter) Format(w io.Writer, data Data) error {
	writer := csv.NewWriter(w)

	header := []string{
		"CheckedAt",
		"Source",
		"Claimed",
		"Address",
		"Status",
		"KeyBits",
		"Exponent",
		"Duration(ms)",
		"Error",
	}

	if err := writer.Write(header); err != nil {
		return err
	}

	for _, result := range data.Results {
		row := []string{
			result.CheckedAt.Format(time.RFC3339),
			result.Source,
			result.Claimed,
			result.Address,
			string(result.Status),
			fmt.Sprintf("%d", result.KeyBits),
			result.Exponent,
			fmt.Sprintf("%.3f", float64(result.Duration.Nanoseconds())/1e6),
			result.Error,
		}

		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
