package storage

import (
	"context"
	"os"
	"path/filepath"

	"github.com/jfk9w-go/flu"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DiskBackend writes media bytes to the filesystem at the path
// carried by the Ref, creating intermediate directories as needed.
type DiskBackend struct{}

func (b DiskBackend) Store(ctx context.Context, ref Ref, data flu.Bytes) error {
	if ref.Path == "" {
		return errors.Errorf("no path resolved for %s", ref)
	}

	dir := filepath.Dir(ref.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "create directory %s", dir)
	}

	if _, err := flu.Copy(data, flu.File(ref.Path)); err != nil {
		return errors.Wrapf(err, "write %s", ref.Path)
	}

	logrus.WithField("path", ref.Path).
		Debugf("stored %d bytes", len(data))
	return nil
}

func (b DiskBackend) Retrieve(ctx context.Context, ref Ref) (flu.Bytes, error) {
	data, err := os.ReadFile(ref.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", ref.Path)
	}

	return data, nil
}
