//go:build windows

package preflight

import (
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/sys/windows"
)

func TestCheckDestinationAccessibleWindows(t *testing.T) {
	t.Run("non-existent drive is an error", func(t *testing.T) {
		findFirstNonExistentDrive := func() string {
			drives, err := windows.GetLogicalDrives()
			if err != nil {
				t.Fatalf("GetLogicalDrives: %v", err)
			}
			for letter := 'A'; letter <= 'Z'; letter++ {
				driveBit := uint32(1) << (letter - 'A')
				if (drives & driveBit) == 0 {
					return string(letter) + `:\`
				}
			}
			return ""
		}

		nonExistentDrive := findFirstNonExistentDrive()
		if nonExistentDrive == "" {
			t.Skip("could not find a non-existent drive letter; all letters A-Z are in use")
		}
		destPath := filepath.Join(nonExistentDrive, "nonexistent", "dest")

		err := CheckDestinationAccessible(destPath)
		if err == nil || !strings.Contains(err.Error(), "volume root does not exist") {
			t.Errorf("got %v", err)
		}
	})

	t.Run("bare drive letter is rejected", func(t *testing.T) {
		err := CheckDestinationAccessible(`C:`)
		if err == nil || !strings.Contains(err.Error(), "bare drive letter") {
			t.Errorf("got %v", err)
		}
	})

	t.Run("volume root is accepted", func(t *testing.T) {
		if err := CheckDestinationAccessible(`C:\`); err != nil {
			t.Errorf("expected a volume root to be a safe destination, got: %v", err)
		}
	})

	t.Run("UNC path fails on non-existence, not on the safety check", func(t *testing.T) {
		err := CheckDestinationAccessible(`\\server\share`)
		if err == nil {
			t.Fatal("expected an error for a non-existent UNC path")
		}
		if !strings.Contains(err.Error(), "volume root does not exist") {
			t.Errorf("expected a volume-not-found error, got: %v", err)
		}
	})
}

func TestPlatformValidateMountPointWindows(t *testing.T) {
	tempDir := t.TempDir()
	existingVolume := filepath.VolumeName(tempDir)
	if existingVolume == "" {
		t.Skip("could not determine an existing volume for testing")
	}

	cases := []struct {
		name          string
		path          string
		expectAnError bool
	}{
		{"existing drive", filepath.Join(existingVolume, "Users", "Test"), false},
		{"relative path is a no-op", `some\relative\path`, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := platformValidateMountPoint(tc.path)
			if tc.expectAnError && err == nil {
				t.Errorf("expected an error for %q", tc.path)
			} else if !tc.expectAnError && err != nil {
				t.Errorf("expected no error for %q, got: %v", tc.path, err)
			}
		})
	}
}
