// Package uploads stores issue photos on local disk under generated
// filenames, mirroring the /uploads static route that serves them.
package uploads

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// Store saves image files to a directory with uuid-derived names.
type Store struct {
	Dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &Store{Dir: dir}, nil
}

// Allowed reports whether the file's extension is accepted.
func Allowed(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Save writes the uploaded file under a fresh uuid filename and
// returns that filename. Files with disallowed extensions are skipped
// with ok=false and no error.
func (s *Store) Save(c *gin.Context, file *multipart.FileHeader) (filename string, ok bool, err error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return "", false, nil
	}

	filename = uuid.New().String() + ext
	if err := c.SaveUploadedFile(file, filepath.Join(s.Dir, filename)); err != nil {
		return "", false, err
	}
	return filename, true, nil
}
