package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"potager/internal/blob/core"
)

func TestMockS3Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMockForTests()
	if s.Driver() != core.DriverS3 || s.Bucket() != "mock-bucket" {
		t.Fatalf("unexpected driver or bucket")
	}
	info, err := s.Put(ctx, "exports/versions/v1/x.json", strings.NewReader(`{"a":1}`), core.PutOptions{ContentType: "application/json"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 7 || info.ContentType != "application/json" {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := s.Put(ctx, "exports/versions/v1/x.json", strings.NewReader("{}"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	_, rc, err := s.Get(ctx, "exports/versions/v1/x.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != `{"a":1}` {
		t.Fatalf("unexpected body %q", body)
	}
	list, err := s.List(ctx, "exports/versions/")
	if err != nil || len(list) != 1 {
		t.Fatalf("unexpected list %+v %v", list, err)
	}
	ok, err := s.Delete(ctx, "exports/versions/v1/x.json")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	ok, err = s.Delete(ctx, "exports/versions/v1/x.json")
	if err != nil || ok {
		t.Fatalf("expected missing delete to report false, got %v %v", ok, err)
	}
}

func TestMockS3Presign(t *testing.T) {
	s := NewMockForTests()
	url, err := s.PresignURL(context.Background(), "k.json", core.SignedURLOptions{Expiry: time.Minute})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.Contains(url, "mock-bucket/k.json") || !strings.Contains(url, "X-Amz-Expires=60") {
		t.Fatalf("unexpected presigned url %s", url)
	}
	if _, err := s.PresignURL(context.Background(), "k.json", core.SignedURLOptions{Method: "PUT"}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected unsupported for PUT")
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected bucket error")
	}
}

func TestNewWithStaticCredentials(t *testing.T) {
	s, err := New(context.Background(), Config{
		Bucket:          "garden",
		Endpoint:        "http://localhost:9000",
		PathStyle:       true,
		AccessKeyID:     "minio",
		SecretAccessKey: "minio123",
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.Bucket() != "garden" {
		t.Fatalf("unexpected bucket %s", s.Bucket())
	}
}

func TestDecodeSingleChunk(t *testing.T) {
	if got, ok := decodeSingleChunk([]byte("5\r\nhello\r\n0\r\n\r\n")); !ok || string(got) != "hello" {
		t.Fatalf("expected decoded chunk, got %q %v", got, ok)
	}
	if _, ok := decodeSingleChunk([]byte("plain body")); ok {
		t.Fatalf("plain body must not decode")
	}
}
