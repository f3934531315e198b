package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/cachyos/instcore/pkg/reporter"
)

// newReporter builds the text or JSON progress reporter a command
// should use, per the --json flag every command shares.
func newReporter(jsonOutput bool) reporter.Reporter {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if jsonOutput {
		return reporter.NewJSONReporter(os.Stdout, log)
	}
	return reporter.NewTextReporter(os.Stdout, log)
}

func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func outputJSONError(message string, err error) error {
	_ = outputJSON(map[string]any{
		"error":   true,
		"message": message,
		"details": err.Error(),
	})
	return fmt.Errorf("%s: %w", message, err)
}
