package storage

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// PublicPrefix is the URL prefix under which stored files are served.
const PublicPrefix = "/uploads/"

var ErrInvalidRef = errors.New("invalid file reference")

// Local keeps uploaded branding assets in a directory on disk.
type Local struct {
	Dir string
}

func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{Dir: dir}, nil
}

// Save writes data under a generated name and returns its public reference.
func (l *Local) Save(kind, ext string, data []byte) (string, error) {
	name := fmt.Sprintf("%s-%s%s", kind, uuid.NewString(), ext)
	if err := os.WriteFile(filepath.Join(l.Dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return PublicPrefix + name, nil
}

// Load reads a file previously returned by Save. References outside the upload
// directory are rejected.
func (l *Local) Load(ref string) ([]byte, error) {
	name, err := l.resolve(ref)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(filepath.Join(l.Dir, name))
}

func (l *Local) resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if !strings.HasPrefix(ref, PublicPrefix) {
		return "", ErrInvalidRef
	}
	name := strings.TrimPrefix(ref, PublicPrefix)
	if name == "" || name != path.Base(name) || name == "." || name == ".." {
		return "", ErrInvalidRef
	}
	return name, nil
}
