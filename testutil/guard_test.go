package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestDirectImportViolations(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "clean.go", "package p\n\nimport \"fmt\"\n\nvar _ = fmt.Sprintf\n")
	writeFile(t, dir, "dirty.go", "package p\n\nimport _ \"sessioncore/internal/wire\"\n")
	writeFile(t, dir, "dirty_test.go", "package p\n\nimport _ \"sessioncore/internal/core\"\n")

	viols, err := directImportViolations(dir, InternalImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || !strings.Contains(viols[0], "dirty.go") {
		t.Fatalf("expected one violation from dirty.go, got %v", viols)
	}
}

func TestDirectImportViolationsParseError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.go", "package p\n\nimport {\n")
	if _, err := directImportViolations(dir, InternalImportForbidden); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestForbiddenPredicates(t *testing.T) {
	if !InternalImportForbidden("sessioncore/internal/core") {
		t.Fatal("internal path should be forbidden")
	}
	if InternalImportForbidden("sessioncore/pkg/domain") {
		t.Fatal("pkg path should be allowed")
	}
	if !WireImportForbidden("sessioncore/internal/wire") {
		t.Fatal("wire path should match")
	}
	if WireImportForbidden("sessioncore/internal/wireless") {
		t.Fatal("suffix match must be exact")
	}
}
