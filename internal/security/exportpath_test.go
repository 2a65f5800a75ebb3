package security

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWithin(t *testing.T) {
	tmpDir := t.TempDir()

	exports := filepath.Join(tmpDir, "exports")
	elsewhere := filepath.Join(tmpDir, "elsewhere")
	for _, dir := range []string{exports, elsewhere} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("MkdirAll failed: %v", err)
		}
	}
	link := filepath.Join(exports, "link")
	if err := os.Symlink(elsewhere, link); err != nil {
		t.Fatalf("Symlink failed: %v", err)
	}

	tests := []struct {
		name string
		path string
		dir  string
		want bool
	}{
		{"file in dir", filepath.Join(exports, "mesh.png"), exports, true},
		{"not yet created subdir", filepath.Join(exports, "plots", "mesh.png"), exports, true},
		{"dir itself", exports, exports, true},
		{"dot dot", filepath.Join(exports, "..", "mesh.png"), exports, false},
		{"relative climb", "../../../etc/passwd", exports, false},
		{"absolute elsewhere", "/etc/passwd", exports, false},
		{"through symlink", filepath.Join(link, "mesh.png"), exports, false},
		{"symlink itself", link, exports, false},
		{"symlink target dir", filepath.Join(link, "mesh.png"), elsewhere, true},
		{"sibling with shared prefix", exports + "-old/mesh.png", exports, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Within(tc.path, tc.dir)
			if err != nil {
				t.Fatalf("Within(%q, %q) error: %v", tc.path, tc.dir, err)
			}
			if got != tc.want {
				t.Errorf("Within(%q, %q) = %v, want %v", tc.path, tc.dir, got, tc.want)
			}
		})
	}
}

func TestCheckExportPath(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()

	if err := CheckExportPath(filepath.Join(b, "mesh.geojson"), a, b); err != nil {
		t.Errorf("path in second dir rejected: %v", err)
	}

	err := CheckExportPath("/etc/mesh.png", a, b)
	if !errors.Is(err, ErrPathEscape) {
		t.Fatalf("err = %v, want ErrPathEscape", err)
	}
	if !strings.Contains(err.Error(), "/etc/mesh.png") {
		t.Errorf("error %q does not name the path", err)
	}
}

func TestCheckExportPath_Defaults(t *testing.T) {
	if err := CheckExportPath(filepath.Join(t.TempDir(), "mesh.html")); err != nil {
		t.Errorf("temp dir path rejected: %v", err)
	}
	if err := CheckExportPath("mesh.html"); err != nil {
		t.Errorf("relative path rejected: %v", err)
	}
	if err := CheckExportPath("/etc/mesh.html"); !errors.Is(err, ErrPathEscape) {
		t.Errorf("err = %v, want ErrPathEscape", err)
	}

	dirs, err := DefaultExportDirs()
	if err != nil {
		t.Fatalf("DefaultExportDirs failed: %v", err)
	}
	if len(dirs) != 2 || dirs[1] != os.TempDir() {
		t.Errorf("DefaultExportDirs = %v", dirs)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "unknown"},
		{"3f2a9c", "3f2a9c"},
		{"EPSG:4326 -> EPSG:3857", "EPSG_4326_-_EPSG_3857"},
		{"../../etc/passwd", "etc_passwd"},
		{"...", "unknown"},
		{"a//b\\c", "a_b_c"},
		{"héllo wörld", "h_llo_w_rld"},
		{strings.Repeat("x", 300), strings.Repeat("x", maxNameLen)},
	}
	for _, tc := range tests {
		if got := SanitizeFilename(tc.in); got != tc.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMeshFileName(t *testing.T) {
	if got := MeshFileName("ab/cd", ".png"); got != "mesh-ab_cd.png" {
		t.Errorf("MeshFileName = %q", got)
	}
	if got := MeshFileName("k", "geojson"); got != "mesh-k.geojson" {
		t.Errorf("MeshFileName = %q", got)
	}
}
