package pipeline

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// staging is a directory holding the serialized snapshot of the frame being
// rasterized, one blob per frame
type staging struct {
	dir         string
	outstanding atomic.Int64
}

func newStaging(parent string) (*staging, error) {
	if parent == "" {
		parent = os.TempDir()
	}
	dir := filepath.Join(parent, "svgcast-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &staging{dir: dir}, nil
}

// put writes a blob, release removes it and must be called on all paths
func (s *staging) put(data []byte) (path string, release func(), err error) {
	path = filepath.Join(s.dir, uuid.NewString()+".svg")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		os.Remove(path)
		return "", nil, err
	}
	s.outstanding.Add(1)
	var once sync.Once
	return path, func() {
		once.Do(func() {
			os.Remove(path)
			s.outstanding.Add(-1)
		})
	}, nil
}

func (s *staging) close() error {
	return os.RemoveAll(s.dir)
}
