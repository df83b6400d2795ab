package cli

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// outputPath is a variable so tests can point outputs at a temp file
var outputPath = func() string { return os.Getenv("GITHUB_OUTPUT") }

// setOutput publishes a key=value pair to the host's output channel:
// appended to $GITHUB_OUTPUT when running under GitHub Actions, logged
// otherwise
func setOutput(key, value string) {
	// The Actions output file is line-oriented
	value = strings.ReplaceAll(value, "\n", " ")
	line := fmt.Sprintf("%s=%s\n", key, value)

	path := outputPath()
	if path == "" {
		log.Printf("[Output] %s", strings.TrimSuffix(line, "\n"))
		return
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("[Output] Failed to open %s: %v", path, err)
		return
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		log.Printf("[Output] Failed to write output: %v", err)
	}
}

func emitSuccess() {
	setOutput("success", "true")
}

func emitFailure(err error) {
	setOutput("error", err.Error())
	setOutput("success", "false")
}
