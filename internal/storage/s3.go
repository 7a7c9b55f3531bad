package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	s3.ListObjectsV2APIClient
}

// S3Options configures an S3Store.
type S3Options struct {
	Bucket        string
	Region        string
	Prefix        string // key prefix, e.g. "uploads/"
	PublicBaseURL string // public URL of the bucket root
	Endpoint      string // S3-compatible endpoint; enables path-style addressing
	AccessKeyID   string
	SecretKey     string
}

// S3Store keeps assets as objects in one bucket. References are public URLs:
// PublicBaseURL + Prefix + object name.
type S3Store struct {
	client    S3API
	bucket    string
	keyPrefix string
	urlPrefix string
	now       func() time.Time

	mu   sync.Mutex
	last time.Time // last allocated name timestamp
}

// NewS3Client builds an S3 client from the default AWS chain, overriding
// region, endpoint and credentials when given.
func NewS3Client(ctx context.Context, opts S3Options) (*s3.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// NewS3Store creates a store over client.
func NewS3Store(client S3API, opts S3Options) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 asset store requires a bucket")
	}

	keyPrefix := strings.Trim(opts.Prefix, "/")
	if keyPrefix != "" {
		keyPrefix += "/"
	}

	base := opts.PublicBaseURL
	if base == "" {
		if opts.Endpoint != "" {
			base = strings.TrimSuffix(opts.Endpoint, "/") + "/" + opts.Bucket
		} else {
			base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, opts.Region)
		}
	}

	return &S3Store{
		client:    client,
		bucket:    opts.Bucket,
		keyPrefix: keyPrefix,
		urlPrefix: strings.TrimSuffix(base, "/") + "/" + keyPrefix,
		now:       time.Now,
	}, nil
}

// URLPrefix implements AssetStore
func (s *S3Store) URLPrefix() string {
	return s.urlPrefix
}

// Save implements AssetStore
func (s *S3Store) Save(ctx context.Context, filename string, r io.Reader, size int64) (string, error) {
	name := ObjectName(filename, s.nextTime())

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.keyPrefix + name),
		Body:   r,
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if contentType := mime.TypeByExtension(path.Ext(name)); contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", name, err)
	}
	return s.urlPrefix + name, nil
}

// nextTime returns a strictly increasing millisecond timestamp so that two
// uploads of the same name never share a key.
func (s *S3Store) nextTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := s.now().Truncate(time.Millisecond)
	if !at.After(s.last) {
		at = s.last.Add(time.Millisecond)
	}
	s.last = at
	return at
}

// Delete implements AssetStore
func (s *S3Store) Delete(ctx context.Context, ref string) error {
	name, ok := objectKey(ref, s.urlPrefix)
	if !ok {
		return fmt.Errorf("reference %q does not belong to this store", ref)
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.keyPrefix + name),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}

// List implements AssetStore
func (s *S3Store) List(ctx context.Context) ([]Asset, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.keyPrefix),
	})

	var assets []Asset
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list assets: %w", err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), s.keyPrefix)
			if name == "" || strings.Contains(name, "/") {
				continue
			}
			assets = append(assets, Asset{Ref: s.urlPrefix + name, ModTime: aws.ToTime(obj.LastModified)})
		}
	}
	return assets, nil
}

var _ AssetStore = (*S3Store)(nil)
