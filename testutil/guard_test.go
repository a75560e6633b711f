package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

type captureFatal struct{ msg string }

func (c *captureFatal) Fatalf(format string, args ...any) { c.msg = fmt.Sprintf(format, args...) }

func TestPredicates(t *testing.T) {
	cases := []struct {
		name string
		fn   func(string) bool
		in   string
		want bool
	}{
		{"domain", DomainImportForbidden, "potager/pkg/domain", true},
		{"domain versioned", DomainImportForbidden, "x/pkg/domain@v1.2.3", true},
		{"domain sub", DomainImportForbidden, "x/pkg/domain/sub", false},
		{"internal", InternalImportForbidden, "potager/internal/core", true},
		{"internal bare", InternalImportForbidden, "internal", false},
		{"storage infra", StorageImportForbidden, "potager/internal/infra/persistence/sqlite", true},
		{"storage sqlite", StorageImportForbidden, "modernc.org/sqlite", true},
		{"storage pgx", StorageImportForbidden, "github.com/jackc/pgx/v5/stdlib", true},
		{"storage other", StorageImportForbidden, "potager/internal/planner", false},
	}
	for _, tc := range cases {
		if got := tc.fn(tc.in); got != tc.want {
			t.Errorf("%s: %q -> %v want %v", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestAssertNoDirectImportsIgnoresTestsAndSubdirs(t *testing.T) {
	dir := t.TempDir()
	write := func(rel, src string) {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	write("main.go", "package tmp\nimport \"fmt\"\nfunc X(){fmt.Println(1)}\n")
	write("main_test.go", "package tmp\nimport \"forbidden/pkg\"\n")
	write("sub/sub.go", "package sub\nimport \"forbidden/pkg\"\n")
	write("notes.txt", "import \"forbidden/pkg\"")

	AssertNoDirectImports(t, dir, func(p string) bool { return p == "forbidden/pkg" }, "none")
}

func TestDirectImportViolationsReported(t *testing.T) {
	dir := t.TempDir()
	src := "package tmp\nimport (\n\t\"os\"\n\talias \"forbidden/pkg\"\n)\n"
	if err := os.WriteFile(filepath.Join(dir, "x.go"), []byte(src), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	viols, err := directImportViolations(dir, func(p string) bool { return p == "forbidden/pkg" })
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || viols[0] != "forbidden/pkg (in x.go)" {
		t.Fatalf("unexpected violations %v", viols)
	}
	var cap captureFatal
	failIfDirectViolations(&cap, "reason", viols)
	if cap.msg == "" {
		t.Fatalf("expected failure message")
	}
}

func TestDirectImportViolationsMissingDir(t *testing.T) {
	if _, err := directImportViolations(filepath.Join(t.TempDir(), "missing"), func(string) bool { return true }); err == nil {
		t.Fatalf("expected error for missing dir")
	}
}

func TestTransitiveViolationsUseLoader(t *testing.T) {
	orig := loadDeps
	t.Cleanup(func() { loadDeps = orig })
	loadDeps = func(string) ([]string, error) {
		return []string{"fmt", "modernc.org/sqlite", "potager/internal/planner"}, nil
	}
	viols, err := transitiveDependencyViolations(".", StorageImportForbidden)
	if err != nil {
		t.Fatalf("violations: %v", err)
	}
	if len(viols) != 1 || viols[0] != "modernc.org/sqlite" {
		t.Fatalf("unexpected violations %v", viols)
	}
	var cap captureFatal
	failIfTransitiveViolations(&cap, "reason", viols)
	if cap.msg == "" {
		t.Fatalf("expected failure message")
	}
}

func TestAssertNoTransitiveDependencyCurrentPackage(t *testing.T) {
	AssertNoTransitiveDependency(t, ".", func(path string) bool {
		return path == "github.com/some/nonexistent/package"
	}, "none")
}
