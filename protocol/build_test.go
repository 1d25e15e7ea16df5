package protocol

import (
	"go/build"
	"strings"
	"testing"
)

// Firmware builds must not link packages that need an OS (mmap, mlock) or heavy
// reflection.
func TestFirmwareBuildImports(t *testing.T) {
	hostOnly := []string{
		"github.com/awnumar/memguard",
		"github.com/fxamacker/cbor/v2",
		"golang.org/x/crypto/hkdf",
	}
	for _, tags := range [][]string{{"tinygo"}, {"baremetal"}} {
		ctx := build.Default
		ctx.BuildTags = tags
		pkg, err := ctx.ImportDir(".", 0)
		if err != nil {
			t.Fatalf("ImportDir(%v) error = %v", tags, err)
		}
		for _, imp := range pkg.Imports {
			for _, bad := range hostOnly {
				if imp == bad {
					t.Errorf("build %v imports %s", tags, imp)
				}
			}
		}
		var files []string
		for _, f := range pkg.GoFiles {
			if strings.HasSuffix(f, "_host.go") {
				files = append(files, f)
			}
		}
		if len(files) > 0 {
			t.Errorf("build %v includes %v", tags, files)
		}
	}

	host, err := build.Default.ImportDir(".", 0)
	if err != nil {
		t.Fatal(err)
	}
	found := map[string]bool{}
	for _, imp := range host.Imports {
		found[imp] = true
	}
	for _, want := range hostOnly {
		if !found[want] {
			t.Errorf("host build does not import %s", want)
		}
	}
}
