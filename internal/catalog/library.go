// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"sectionshop/internal/storage"
)

// ErrMissingSource means the Liquid source for a known section is absent
// from the library. This is a deployment defect, not a user error.
var ErrMissingSource = errors.New("catalog: missing section source")

// DefaultLibraryDir is the directory the section sources ship in.
const DefaultLibraryDir = "SECTION_LIBRARY"

// sourceExt is appended to a section handle to name its source file.
const sourceExt = ".liquid"

// Library loads the Liquid template body of a section by handle.
type Library interface {
	Load(ctx context.Context, handle string) (string, error)
}

// SourceName returns the file name a section's source is stored under.
func SourceName(handle string) string {
	return handle + sourceExt
}

// DirLibrary reads section sources from <Root>/<handle>.liquid on the local
// filesystem.
type DirLibrary struct {
	Root string
}

// NewDirLibrary creates a library rooted at dir (DefaultLibraryDir if empty).
func NewDirLibrary(dir string) *DirLibrary {
	if dir == "" {
		dir = DefaultLibraryDir
	}
	return &DirLibrary{Root: dir}
}

// Load implements Library.
func (l *DirLibrary) Load(_ context.Context, handle string) (string, error) {
	if _, ok := ByHandle(handle); !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownSection, handle)
	}

	path := filepath.Join(l.Root, SourceName(handle))
	body, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w at %s: add it to the section library before installing", ErrMissingSource, path)
	}
	if err != nil {
		return "", fmt.Errorf("read section source %s: %w", path, err)
	}
	return string(body), nil
}

// ObjectGetter fetches an object body from a bucket. Implementations wrap
// storage.ErrNotFound when the key is absent.
type ObjectGetter interface {
	Download(ctx context.Context, bucket, key string) ([]byte, error)
}

// ObjectLibrary reads section sources from an S3-compatible bucket under
// <Prefix><handle>.liquid.
type ObjectLibrary struct {
	objects ObjectGetter
	bucket  string
	prefix  string
}

// NewObjectLibrary creates a library backed by the given bucket. A non-empty
// prefix is used as a key prefix, e.g. "sections/".
func NewObjectLibrary(objects ObjectGetter, bucket, prefix string) *ObjectLibrary {
	return &ObjectLibrary{objects: objects, bucket: bucket, prefix: prefix}
}

// Load implements Library.
func (l *ObjectLibrary) Load(ctx context.Context, handle string) (string, error) {
	if _, ok := ByHandle(handle); !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownSection, handle)
	}

	key := l.prefix + SourceName(handle)
	body, err := l.objects.Download(ctx, l.bucket, key)
	if errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("%w at s3://%s/%s: upload it before installing", ErrMissingSource, l.bucket, key)
	}
	if err != nil {
		return "", fmt.Errorf("load section source s3://%s/%s: %w", l.bucket, key, err)
	}
	return string(body), nil
}
