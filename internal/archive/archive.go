// Package archive uploads generated reports to a bucket or a directory.
package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/swellcycle/surfboard-gwp/internal/config"
	"golang.org/x/sync/errgroup"
)

// ErrUnsupportedScheme is returned for archive urls other than s3, gs and file.
var ErrUnsupportedScheme = errors.New("unsupported archive url scheme")

// uploadConcurrency bounds the number of objects uploaded at once.
const uploadConcurrency = 4

// Store persists objects under a key.
type Store interface {
	Put(ctx context.Context, key string, contentType string, data []byte) error
}

// Object is a file to archive.
type Object struct {
	Name        string
	ContentType string
	Data        []byte
}

// Open returns the store described by cfg.URL.
func Open(ctx context.Context, cfg config.Archive) (Store, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse archive url: %w", err)
	}

	prefix := strings.Trim(u.Path, "/")
	switch u.Scheme {
	case "s3":
		return NewS3Store(ctx, u.Host, prefix,
			WithRegion(cfg.AWSRegion),
			WithRoleArn(cfg.AWSRoleArn),
			WithEndpoint(cfg.Endpoint),
		)
	case "gs":
		return NewGCSStore(ctx, u.Host, prefix)
	case "file":
		dir := u.Path
		if u.Host != "" {
			dir = path.Join(u.Host, u.Path)
		}
		return NewFileStore(dir)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
}

// UploadAll stores every object under folder, concurrently.
func UploadAll(ctx context.Context, store Store, folder string, objects []Object) error {
	errg, errgctx := errgroup.WithContext(ctx)
	errg.SetLimit(uploadConcurrency)

	for _, object := range objects {
		errg.Go(func() error {
			key := path.Join(folder, object.Name)
			if err := store.Put(errgctx, key, object.ContentType, object.Data); err != nil {
				return fmt.Errorf("failed to archive %s: %w", key, err)
			}
			slog.Debug("object archived", "key", key, "size", len(object.Data))
			return nil
		})
	}

	return errg.Wait()
}

// objectKey prefixes key, prefix may be empty.
func objectKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}
