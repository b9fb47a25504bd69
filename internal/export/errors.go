package export

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ExportError reports a failed output. Raster and vector failures are
// independent: one failing does not invalidate the other output.
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s: %v", e.Path, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// normalizeSuffix forces the filename to carry the given extension,
// replacing any other extension present.
func normalizeSuffix(path, ext string) string {
	cur := filepath.Ext(path)
	if strings.EqualFold(cur, ext) {
		return path
	}
	return strings.TrimSuffix(path, cur) + ext
}
