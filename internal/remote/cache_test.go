package remote

import (
	"testing"

	"github.com/spf13/afero"
)

func TestListCache_ReadMissing(t *testing.T) {
	c := NewListCache(afero.NewMemMapFs(), "/data")
	got, err := c.Read()
	if err != nil || got != nil {
		t.Fatalf("Read() = (%v, %v), want (nil, nil)", got, err)
	}
}

func TestListCache_ReadInvalid(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/data/tasklists.json", []byte("{invalid"), 0o644)

	if _, err := NewListCache(fs, "/data").Read(); err == nil {
		t.Error("Read() expected error for invalid JSON")
	}
}

func TestListCache_WriteRead(t *testing.T) {
	c := NewListCache(afero.NewMemMapFs(), "/data")
	lists := []TaskList{{ID: "1", Title: "Inbox", Updated: "2025-01-01T00:00:00.000Z"}}

	if err := c.Write(lists); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	got, err := c.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(got.Lists) != 1 || got.Lists[0] != lists[0] {
		t.Errorf("Read().Lists = %v, want %v", got.Lists, lists)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be set")
	}
}
