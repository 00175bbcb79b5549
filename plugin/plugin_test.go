package plugin_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mindloop/cortex/plugin"
)

func TestTryLoad_MissingFile(t *testing.T) {
	handle, ok := plugin.TryLoad(filepath.Join(t.TempDir(), "sensors.so"), nil)
	if ok {
		t.Error("expected absent handle for missing plugin file")
	}
	if handle != nil {
		t.Errorf("expected nil handle, got %v", handle)
	}
}

func TestTryLoad_InvalidFile(t *testing.T) {
	// A file that exists but is not a loadable plugin.
	path := filepath.Join(t.TempDir(), "sensors.so")
	if err := os.WriteFile(path, []byte("not a shared object"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	handle, ok := plugin.TryLoad(path, nil)
	if ok {
		t.Error("expected absent handle for invalid plugin file")
	}
	if handle != nil {
		t.Errorf("expected nil handle, got %v", handle)
	}
}
