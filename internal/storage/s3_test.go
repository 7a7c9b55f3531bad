package storage

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// fakeS3 keeps objects in memory
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string]string)}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = string(data)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := &s3.ListObjectsV2Output{}
	for key := range f.objects {
		if strings.HasPrefix(key, aws.ToString(in.Prefix)) {
			out.Contents = append(out.Contents, types.Object{
				Key:          aws.String(key),
				LastModified: aws.Time(time.Unix(0, 0)),
			})
		}
	}
	return out, nil
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	client := newFakeS3()
	s, err := NewS3Store(client, S3Options{
		Bucket:        "folio",
		Region:        "eu-west-1",
		Prefix:        "uploads/",
		PublicBaseURL: "https://cdn.example.com/",
	})
	if err != nil {
		t.Fatalf("NewS3Store() error = %v", err)
	}
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }

	if s.URLPrefix() != "https://cdn.example.com/uploads/" {
		t.Errorf("URLPrefix() = %q", s.URLPrefix())
	}

	first, err := s.Save(ctx, "talk slides.pdf", strings.NewReader("pdf"), 3)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if first != "https://cdn.example.com/uploads/1700000000000-talk_slides.pdf" {
		t.Errorf("Save() = %q", first)
	}
	if client.objects["uploads/1700000000000-talk_slides.pdf"] != "pdf" {
		t.Errorf("objects = %v", client.objects)
	}

	second, err := s.Save(ctx, "talk slides.pdf", strings.NewReader("pdf"), 3)
	if err != nil {
		t.Fatalf("second Save() error = %v", err)
	}
	if second == first {
		t.Errorf("second Save() reused key %q", first)
	}

	assets, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(assets) != 2 {
		t.Errorf("List() returned %d assets, want 2", len(assets))
	}

	if err := s.Delete(ctx, first); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := client.objects["uploads/1700000000000-talk_slides.pdf"]; ok {
		t.Error("object still present after Delete()")
	}
	if err := s.Delete(ctx, "https://elsewhere.example.com/x.pdf"); err == nil {
		t.Error("Delete() of foreign ref error = nil, want error")
	}
}

func TestNewS3Store_DefaultURL(t *testing.T) {
	tests := []struct {
		name string
		opts S3Options
		want string
	}{
		{"aws", S3Options{Bucket: "b", Region: "us-east-1", Prefix: "up"}, "https://b.s3.us-east-1.amazonaws.com/up/"},
		{"endpoint", S3Options{Bucket: "b", Endpoint: "http://localhost:9000/"}, "http://localhost:9000/b/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewS3Store(newFakeS3(), tt.opts)
			if err != nil {
				t.Fatalf("NewS3Store() error = %v", err)
			}
			if s.URLPrefix() != tt.want {
				t.Errorf("URLPrefix() = %q, want %q", s.URLPrefix(), tt.want)
			}
		})
	}

	if _, err := NewS3Store(newFakeS3(), S3Options{}); err == nil {
		t.Error("NewS3Store() without bucket error = nil, want error")
	}
}
