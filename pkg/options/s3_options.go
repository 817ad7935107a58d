package options

import (
	"errors"

	"github.com/spf13/pflag"
)

var _ IOptions = (*S3Options)(nil)

// S3Options locate the object store holding route catalogs.
type S3Options struct {
	Endpoint        string `json:"endpoint" mapstructure:"endpoint"`
	AccessKeyID     string `json:"access-key-id" mapstructure:"access-key-id"`
	SecretAccessKey string `json:"secret-access-key" mapstructure:"secret-access-key"`
	UseSSL          bool   `json:"use-ssl" mapstructure:"use-ssl"`
	Region          string `json:"region" mapstructure:"region"`
}

func NewS3Options() *S3Options {
	return &S3Options{
		Endpoint: "localhost:9000",
		UseSSL:   false,
		Region:   "us-east-1",
	}
}

func (o *S3Options) Validate() []error {
	var errs []error
	if o.Endpoint == "" {
		errs = append(errs, errors.New("--s3.endpoint must not be empty"))
	}
	if (o.AccessKeyID == "") != (o.SecretAccessKey == "") {
		errs = append(errs, errors.New("--s3.access-key-id and --s3.secret-access-key must be set together"))
	}
	return errs
}

func (o *S3Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Endpoint, join(prefixes, "s3.endpoint"), o.Endpoint, "S3 service endpoint (e.g. s3.amazonaws.com or minio.local:9000)")
	fs.StringVar(&o.AccessKeyID, join(prefixes, "s3.access-key-id"), o.AccessKeyID, "S3 access key ID")
	fs.StringVar(&o.SecretAccessKey, join(prefixes, "s3.secret-access-key"), o.SecretAccessKey, "S3 secret access key")
	fs.BoolVar(&o.UseSSL, join(prefixes, "s3.use-ssl"), o.UseSSL, "Enable SSL for S3 connection")
	fs.StringVar(&o.Region, join(prefixes, "s3.region"), o.Region, "S3 region")
}
