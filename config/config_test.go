package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"sdimage/catalog"
)

func setHome(t *testing.T, dir string) {
	if runtime.GOOS == "windows" {
		t.Setenv("AppData", dir)
		return
	}
	t.Setenv("HOME", dir)
}

func TestInitializeWritesDefaultConfig(t *testing.T) {
	home := t.TempDir()
	setHome(t, home)

	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() = %v", err)
	}

	path, err := configPath()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file at %s: %v", path, err)
	}

	if DriveName != "pc144" {
		t.Errorf("DriveName = %q, want pc144", DriveName)
	}
	if Cyls != 80 || Heads != 2 {
		t.Errorf("geometry = %d/%d, want 80/2", Cyls, Heads)
	}
	if PreferredHost != catalog.HostPC {
		t.Errorf("PreferredHost = %v, want HostPC", PreferredHost)
	}

	filename, err := GetImageFilename("scratch144")
	if err != nil {
		t.Fatal(err)
	}
	if filename != "scratch144.img" {
		t.Errorf("GetImageFilename(scratch144) = %q, want scratch144.img", filename)
	}
}

func TestInitializeRejectsUnknownDefault(t *testing.T) {
	home := t.TempDir()
	setHome(t, home)

	path, err := configPath()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	bad := `
default = "nonexistent"

[[drive]]
name = "pc144"
cyls = 80
heads = 2
rpm = 300
maxkbps = 500
images = []
`
	if err := os.WriteFile(path, []byte(bad), 0644); err != nil {
		t.Fatal(err)
	}

	if err := Initialize(); err == nil {
		t.Fatal("Initialize() = nil, want error for unresolved default drive")
	}
}

func TestInitializeRejectsMissingImage(t *testing.T) {
	home := t.TempDir()
	setHome(t, home)

	path, err := configPath()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	bad := `
default = "pc144"

[[drive]]
name = "pc144"
cyls = 80
heads = 2
rpm = 300
maxkbps = 500
images = ["ghost"]
`
	if err := os.WriteFile(path, []byte(bad), 0644); err != nil {
		t.Fatal(err)
	}

	if err := Initialize(); err == nil {
		t.Fatal("Initialize() = nil, want error for image not in image array")
	}
}
