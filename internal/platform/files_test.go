package platform

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCreateDirectoryIfNotExists(t *testing.T) {
	// Create temporary directory for testing
	tempDir := t.TempDir()
	testDir := filepath.Join(tempDir, "test_dir")

	// Directory should not exist initially
	if _, err := os.Stat(testDir); !os.IsNotExist(err) {
		t.Fatalf("Test directory already exists: %s", testDir)
	}

	// Create directory
	err := CreateDirectoryIfNotExists(testDir)
	if err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	// Directory should now exist
	if _, err := os.Stat(testDir); os.IsNotExist(err) {
		t.Fatalf("Directory was not created: %s", testDir)
	}

	// Second call should not fail
	err = CreateDirectoryIfNotExists(testDir)
	if err != nil {
		t.Fatalf("Failed to handle existing directory: %v", err)
	}
}

func TestGetHomeDownloadsDir(t *testing.T) {
	downloadsDir, err := GetHomeDownloadsDir()
	if err != nil {
		t.Fatalf("Failed to get downloads directory: %v", err)
	}

	if downloadsDir == "" {
		t.Fatal("Downloads directory is empty")
	}

	// Should end with "Downloads"
	if filepath.Base(downloadsDir) != "Downloads" {
		t.Errorf("Expected directory to end with 'Downloads', got: %s", downloadsDir)
	}
}

func TestOpenFileInManager_NonExistentFile(t *testing.T) {
	// Create a temporary directory with no similar files
	tempDir := t.TempDir()
	nonExistentFile := filepath.Join(tempDir, "nonexistent.txt")

	err := OpenFileInManager(nonExistentFile)
	if err == nil {
		t.Error("Expected error for non-existent file, got nil")
	}

	// Check that error contains the expected message
	if !strings.Contains(err.Error(), "file does not exist:") {
		t.Errorf("Error message should contain 'file does not exist:', got: %v", err)
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"clip", "clip"},
		{"clip.mp4", "clip.mp4"},
		{"a/b\\c:d*e?f\"g<h>i|j", "a_b_c_d_e_f_g_h_i_j"},
		{"  .hidden. ", "hidden"},
		{"", FallbackFileName},
		{"...", FallbackFileName},
		{"line\nbreak", "line_break"},
		{"视频 合并", "视频 合并"},
	}

	for _, tt := range tests {
		if got := SanitizeFileName(tt.in); got != tt.expected {
			t.Errorf("SanitizeFileName(%q) = %q, expected %q", tt.in, got, tt.expected)
		}
	}
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()

	first, err := UniquePath(dir, "clip.mp4")
	if err != nil {
		t.Fatalf("UniquePath failed: %v", err)
	}
	if first != filepath.Join(dir, "clip.mp4") {
		t.Errorf("expected untouched name, got %s", first)
	}

	if err := os.WriteFile(first, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	second, err := UniquePath(dir, "clip.mp4")
	if err != nil {
		t.Fatalf("UniquePath failed: %v", err)
	}
	if second != filepath.Join(dir, "clip (1).mp4") {
		t.Errorf("expected numbered name, got %s", second)
	}

	if err := os.WriteFile(second, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	third, _ := UniquePath(dir, "clip.mp4")
	if !strings.HasSuffix(third, "clip (2).mp4") {
		t.Errorf("expected second duplicate, got %s", third)
	}
}
