package blob

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		cfg  Config
		want Driver
	}{
		{"default fs", Config{FSRoot: filepath.Join(t.TempDir(), "a")}, DriverFilesystem},
		{"explicit fs", Config{Driver: "fs", FSRoot: filepath.Join(t.TempDir(), "b")}, DriverFilesystem},
		{"memory", Config{Driver: "memory"}, DriverMemory},
		{"s3", Config{Driver: "s3", S3: S3Config{Bucket: "garden", Region: "eu-west-3"}}, DriverS3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, err := Open(ctx, tc.cfg)
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			if store.Driver() != tc.want {
				t.Fatalf("driver %s want %s", store.Driver(), tc.want)
			}
		})
	}
}

func TestOpenErrors(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "ftp"}); err == nil || !strings.Contains(err.Error(), "ftp") {
		t.Fatalf("expected unknown driver error, got %v", err)
	}
	if _, err := Open(context.Background(), Config{Driver: "s3"}); err == nil {
		t.Fatalf("expected missing bucket error")
	}
}

func TestMockS3Exposed(t *testing.T) {
	if NewMockS3ForTests().Driver() != DriverS3 {
		t.Fatalf("expected s3 mock")
	}
}
