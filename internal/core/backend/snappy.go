package backend

import (
	"fmt"

	"github.com/golang/snappy"
)

// Compressed wraps another backend, snappy-compressing blobs on the way in
// and decompressing on the way out. Snapshot documents compress well; the
// tradeoff is CPU over storage, which suits frequent autosaves.
type Compressed struct {
	inner Backend
}

// WithCompression layers snappy compression over a backend.
func WithCompression(inner Backend) *Compressed {
	return &Compressed{inner: inner}
}

func (c *Compressed) Write(name string, data []byte) error {
	return c.inner.Write(name, snappy.Encode(nil, data))
}

func (c *Compressed) Read(name string) ([]byte, error) {
	data, err := c.inner.Read(name)
	if err != nil {
		return nil, err
	}
	out, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("decompress %q: %w", name, err)
	}
	return out, nil
}

func (c *Compressed) Delete(name string) error {
	return c.inner.Delete(name)
}

func (c *Compressed) List() ([]string, error) {
	return c.inner.List()
}
