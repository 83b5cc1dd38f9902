package image

import (
	"os"
	"strings"
	"testing"

	"codeberg.org/snonux/polyglot/internal/testutil"
)

func TestTempPreviewStore(t *testing.T) {
	store, err := NewTempPreviewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewTempPreviewStore failed: %v", err)
	}
	defer store.Close()

	handle, err := store.Create(testutil.PNGHeader, "image/png")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	path, ok := store.Path(handle)
	if !ok {
		t.Fatal("Path not found for live handle")
	}
	if !strings.HasSuffix(path, ".png") {
		t.Errorf("Path %q lacks .png extension", path)
	}
	testutil.AssertFileExists(t, path)
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}

	if err := store.Revoke(handle); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	testutil.AssertFileNotExists(t, path)
	if store.Len() != 0 {
		t.Errorf("Len() = %d, want 0", store.Len())
	}

	// Second revoke and unknown handles are no-ops
	if err := store.Revoke(handle); err != nil {
		t.Errorf("Second Revoke failed: %v", err)
	}
	if err := store.Revoke("preview-unknown"); err != nil {
		t.Errorf("Revoke unknown failed: %v", err)
	}
}

func TestTempPreviewStoreClose(t *testing.T) {
	store, err := NewTempPreviewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Create([]byte("x"), "application/x-unknown"); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := os.Stat(store.dir); !os.IsNotExist(err) {
		t.Error("Preview directory still exists after Close")
	}
}
