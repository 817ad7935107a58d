package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"gopkg.in/yaml.v3"

	"github.com/autopeer-io/fleetcast/internal/fleethub/core/model"
	"github.com/autopeer-io/fleetcast/pkg/log"
	"github.com/autopeer-io/fleetcast/pkg/options"
)

const s3Scheme = "s3://"

// document is the YAML layout of a route file.
type document struct {
	Routes []model.Route `yaml:"routes"`
}

// Parse decodes a YAML route document into a catalog.
func Parse(r io.Reader) (*Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode route document: %w", err)
	}
	return New(doc.Routes)
}

// Load builds the catalog named by source:
//
//	""                    built-in routes
//	"/path/routes.yaml"   local file
//	"s3://bucket/key"     object fetched through s3Opts
func Load(ctx context.Context, source string, s3Opts *options.S3Options) (*Catalog, error) {
	switch {
	case source == "":
		return New(Defaults())
	case strings.HasPrefix(source, s3Scheme):
		return loadObject(ctx, source, s3Opts)
	default:
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("open route file: %w", err)
		}
		defer f.Close()
		return Parse(f)
	}
}

func loadObject(ctx context.Context, source string, opts *options.S3Options) (*Catalog, error) {
	bucket, key, ok := strings.Cut(strings.TrimPrefix(source, s3Scheme), "/")
	if !ok || bucket == "" || key == "" {
		return nil, fmt.Errorf("route source %q: want s3://bucket/key", source)
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure:    opts.UseSSL,
		Region:    opts.Region,
		Transport: http.DefaultTransport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	obj, err := client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get route object %s: %w", source, err)
	}
	defer obj.Close()

	catalog, err := Parse(obj)
	if err != nil {
		return nil, fmt.Errorf("route object %s: %w", source, err)
	}

	log.Info("Loaded route catalog from object storage", "bucket", bucket, "key", key, "routes", catalog.Len())
	return catalog, nil
}
