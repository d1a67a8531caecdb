package source

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/cognicore/lexfreq/pkg/lexfreq/internalerr"
)

// Walk returns every regular file under root whose name ends with ext, in
// lexical walk order.
func Walk(root, ext string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if strings.HasSuffix(d.Name(), ext) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", internalerr.ErrCorpusRoot, root, err)
	}
	return files, nil
}
