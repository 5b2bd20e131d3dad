package util

import "fmt"

// AppName is used for the binary, the config directory and OAuth prompts.
const AppName = "taskstodo"

// RunPrefix returns the log prefix for one sync run.
// Format: [taskstodo <runID>]
func RunPrefix(runID string) string {
	return fmt.Sprintf("[%s %s] ", AppName, shortID(runID))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
