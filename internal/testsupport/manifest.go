package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteManifest writes a libraryfolders.vdf at path with one library folder
// per element of folders.
func WriteManifest(t testing.TB, path string, folders ...[]uint64) {
	t.Helper()

	var b strings.Builder
	b.WriteString("\"libraryfolders\"\n{\n")
	for i, apps := range folders {
		fmt.Fprintf(&b, "\t\"%d\"\n\t{\n", i)
		fmt.Fprintf(&b, "\t\t\"path\"\t\t\"/steam/library%d\"\n", i)
		b.WriteString("\t\t\"label\"\t\t\"\"\n")
		b.WriteString("\t\t\"apps\"\n\t\t{\n")
		for _, id := range apps {
			fmt.Fprintf(&b, "\t\t\t\"%d\"\t\t\"%d\"\n", id, 1024*id)
		}
		b.WriteString("\t\t}\n\t}\n")
	}
	b.WriteString("}\n")

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write manifest %s: %v", path, err)
	}
}
