package output

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/user/leekcheck/internal/checker"
)

// TextFormatter prints one line per key in the style of leek's checker.
type TextFormatter struct{}

func (f *TextFormatter) Format(w io.Writer, data Data) error {
	for _, result := range data.Results {
		if _, err := fmt.Fprintln(w, TextLine(result)); err != nil {
			return err
		}
	}
	return nil
}

func TextLine(result checker.Result) string {
	name := filepath.Base(result.Source)
	switch result.Status {
	case checker.StatusOK:
		return fmt.Sprintf("Checking %s: OK (%s)", name, result.Address)
	case checker.StatusMismatch:
		return fmt.Sprintf("Checking %s: FAIL", name)
	default:
		return fmt.Sprintf("Checking %s: ERROR (%s)", name, result.Error)
	}
}
