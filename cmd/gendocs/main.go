// Command gendocs generates documentation for the taskstodo CLI.
//
//	gendocs <markdown|man|completions> [dir]
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/bolasblack/taskstodo/internal/cli"
)

type generator struct {
	dir string
	gen func(cmd *cobra.Command, dir string) error
}

var generators = map[string]generator{
	"markdown":    {"docs/commands", generateMarkdown},
	"man":         {"out/man", generateMan},
	"completions": {"out/completions", generateCompletions},
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: gendocs <markdown|man|completions> [dir]")
		os.Exit(1)
	}

	g, ok := generators[os.Args[1]]
	if !ok {
		fmt.Printf("Unknown format: %s\n", os.Args[1])
		os.Exit(1)
	}
	dir := g.dir
	if len(os.Args) > 2 {
		dir = os.Args[2]
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}
	if err := g.gen(cli.GetRootCmd(), dir); err != nil {
		log.Fatalf("Failed to generate %s: %v", os.Args[1], err)
	}
	fmt.Printf("Generated %s in %s/\n", os.Args[1], dir)
}

func generateMarkdown(cmd *cobra.Command, dir string) error {
	// Front matter for static site generators
	filePrepender := func(filename string) string {
		base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
		return fmt.Sprintf("---\ntitle: %q\ndate: %s\n---\n\n",
			strings.ReplaceAll(base, "_", " "), time.Now().Format("2006-01-02"))
	}
	linkHandler := func(name string) string {
		return "./" + strings.TrimSuffix(name, filepath.Ext(name)) + ".md"
	}
	return doc.GenMarkdownTreeCustom(cmd, dir, filePrepender, linkHandler)
}

func generateCompletions(cmd *cobra.Command, dir string) error {
	shells := []struct {
		file string
		gen  func(*os.File) error
	}{
		{"taskstodo.bash", func(f *os.File) error { return cmd.GenBashCompletionV2(f, true) }},
		{"taskstodo.zsh", func(f *os.File) error { return cmd.GenZshCompletion(f) }},
		{"taskstodo.fish", func(f *os.File) error { return cmd.GenFishCompletion(f, true) }},
	}
	for _, s := range shells {
		if err := writeCompletion(filepath.Join(dir, s.file), s.gen); err != nil {
			return err
		}
	}
	return nil
}

func writeCompletion(path string, gen func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gen(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

func generateMan(cmd *cobra.Command, dir string) error {
	header := &doc.GenManHeader{
		Title:   "TASKSTODO",
		Section: "1",
		Source:  "taskstodo",
		Manual:  "taskstodo Manual",
	}
	return doc.GenManTree(cmd, header, dir)
}
