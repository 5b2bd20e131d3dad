// Command taskstodo syncs the calcurse TODO list with Google Tasks.
package main

import "github.com/bolasblack/taskstodo/internal/cli"

func main() {
	cli.Execute()
}
