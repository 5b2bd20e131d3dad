// generator.go renders the commented default configuration for taskstodo init.

package config

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

// fieldComments are inserted above the matching key of the given section.
var fieldComments = []struct {
	section, key, comment string
}{
	{"calcurse", "dir", "calcurse data directory (contains todo and notes/)"},
	{"remote", "create_workers", "1 creates tasks one by one and keeps their exact order"},
	{"watch", "interval", "used by 'taskstodo sync --watch'"},
}

// GenerateConfig writes cfg as TOML to path with the schema comment header
// and field comments. Parent directories are created as needed.
func GenerateConfig(fs afero.Fs, path string, cfg Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	content := buf.String()
	for _, fc := range fieldComments {
		content = insertComment(content, fc.section, fc.key, fc.comment)
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return afero.WriteFile(fs, path, []byte(SchemaComment+content), 0o644)
}

// insertComment inserts a comment before key in [section].
func insertComment(content, section, key, comment string) string {
	lines := strings.Split(content, "\n")
	var result []string
	inSection := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") {
			inSection = trimmed == "["+section+"]"
			result = append(result, line)
			continue
		}
		if inSection && strings.HasPrefix(trimmed, key+" ") {
			result = append(result, "# "+comment)
			inSection = false
		}
		result = append(result, line)
	}

	return strings.Join(result, "\n")
}
