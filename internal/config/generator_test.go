package config

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestGenerateConfig(t *testing.T) {
	t.Run("writes loadable TOML with schema header and comments", func(t *testing.T) {
		fs := afero.NewMemMapFs()

		if err := GenerateConfig(fs, "/cfg/taskstodo/config.toml", DefaultConfig()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, _ := afero.ReadFile(fs, "/cfg/taskstodo/config.toml")
		content := string(data)

		if !strings.HasPrefix(content, SchemaComment) {
			t.Error("expected schema comment prefix")
		}
		if !strings.Contains(content, "# 1 creates tasks one by one") {
			t.Errorf("expected create_workers comment in output:\n%s", content)
		}
		if !strings.Contains(content, "submit_delay = '100ms'") {
			t.Errorf("expected submit_delay as duration string:\n%s", content)
		}

		cfg, err := LoadConfig(fs, "/cfg/taskstodo/config.toml")
		if err != nil {
			t.Fatalf("generated config does not load: %v", err)
		}
		if cfg.Remote.CreateWorkers != 1 {
			t.Errorf("CreateWorkers = %d, want 1", cfg.Remote.CreateWorkers)
		}
	})
}

func TestInsertComment(t *testing.T) {
	content := "[a]\nkey = 1\n\n[b]\nkey = 2\n"
	got := insertComment(content, "b", "key", "hello")
	want := "[a]\nkey = 1\n\n[b]\n# hello\nkey = 2\n"
	if got != want {
		t.Errorf("insertComment() = %q, want %q", got, want)
	}
}
