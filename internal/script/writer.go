package script

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/mattjoyce/manimcp/internal/toolerr"
)

// DefaultName is the script base name used when a caller supplies none.
const DefaultName = "scene"

// Script describes a source file written to disk.
type Script struct {
	Path   string
	Dir    string
	Name   string
	Digest string
	Bytes  int
}

// Writer persists scripts as <dir>/<name>.py.
type Writer struct {
	// Perm is the file mode for new scripts. Zero means 0o644.
	Perm os.FileMode
}

// Write stores code in dir under name, overwriting any earlier script with
// the same name. The directory must already exist.
func (w Writer) Write(dir, name, code string) (Script, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultName
	}
	if err := validateName(name); err != nil {
		return Script{}, err
	}

	perm := w.Perm
	if perm == 0 {
		perm = 0o644
	}

	path := filepath.Join(dir, name+".py")
	if err := os.WriteFile(path, []byte(code), perm); err != nil {
		return Script{}, toolerr.Wrap(toolerr.KindFilesystem, "write script", err)
	}

	return Script{
		Path:   path,
		Dir:    dir,
		Name:   name,
		Digest: Digest(code),
		Bytes:  len(code),
	}, nil
}

// Digest returns the hex blake3 sum of code.
func Digest(code string) string {
	sum := blake3.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func validateName(name string) error {
	if name == "." || name == ".." {
		return toolerr.Newf(toolerr.KindInvalidArgument, "write script", "script name %q is invalid", name)
	}
	if strings.ContainsAny(name, `/\`) {
		return toolerr.Newf(toolerr.KindInvalidArgument, "write script", "script name %q must not contain path separators", name)
	}
	if strings.ContainsRune(name, 0) {
		return toolerr.New(toolerr.KindInvalidArgument, "write script", "script name contains a NUL byte")
	}
	return nil
}
