package storage

import (
	"errors"
	"testing"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name       string
		uri        string
		wantScheme string
		wantBucket string
		wantKey    string
		wantErr    error
	}{
		{
			name:       "bucket and key",
			uri:        "s3://models/resnet/1/model.bin",
			wantScheme: SchemeS3,
			wantBucket: "models",
			wantKey:    "resnet/1/model.bin",
		},
		{
			name:       "bucket only",
			uri:        "s3://models",
			wantScheme: SchemeS3,
			wantBucket: "models",
			wantKey:    "",
		},
		{
			name:       "bucket with trailing separator",
			uri:        "s3://models/",
			wantScheme: SchemeS3,
			wantBucket: "models",
			wantKey:    "",
		},
		{
			name:    "empty bucket",
			uri:     "s3://",
			wantErr: ErrBucketNotFound,
		},
		{
			name:    "empty bucket with key",
			uri:     "s3:///key",
			wantErr: ErrBucketNotFound,
		},
		{
			name:       "file scheme",
			uri:        "file:///srv/models",
			wantScheme: SchemeFile,
			wantKey:    "/srv/models",
		},
		{
			name:       "bare local path",
			uri:        "/srv/models",
			wantScheme: SchemeFile,
			wantKey:    "/srv/models",
		},
		{
			name:    "unknown scheme",
			uri:     "gopher://models/resnet",
			wantErr: ErrUnsupportedScheme,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := ParsePath(tt.uri)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParsePath(%q) error = %v, want %v", tt.uri, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePath(%q) unexpected error: %v", tt.uri, err)
			}
			if path.Scheme != tt.wantScheme {
				t.Errorf("scheme = %q, want %q", path.Scheme, tt.wantScheme)
			}
			if path.Bucket != tt.wantBucket {
				t.Errorf("bucket = %q, want %q", path.Bucket, tt.wantBucket)
			}
			if path.Key != tt.wantKey {
				t.Errorf("key = %q, want %q", path.Key, tt.wantKey)
			}
		})
	}
}

func TestPathJoin(t *testing.T) {
	root := Path{Scheme: SchemeS3, Bucket: "models", Key: ""}

	child := root.Join("resnet")
	if child.Key != "resnet" {
		t.Errorf("Join on root key = %q, want %q", child.Key, "resnet")
	}

	grandchild := child.Join("1")
	if grandchild.Key != "resnet/1" {
		t.Errorf("nested Join key = %q, want %q", grandchild.Key, "resnet/1")
	}

	// The receiver is never mutated.
	if root.Key != "" || child.Key != "resnet" {
		t.Error("Join mutated its receiver")
	}
}

func TestPathDirPrefix(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"", ""},
		{"resnet", "resnet/"},
		{"resnet/1", "resnet/1/"},
		{"resnet/1/", "resnet/1/"},
	}

	for _, tt := range tests {
		p := Path{Scheme: SchemeS3, Bucket: "b", Key: tt.key}
		if got := p.DirPrefix(); got != tt.want {
			t.Errorf("DirPrefix(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestPathString(t *testing.T) {
	tests := []struct {
		path Path
		want string
	}{
		{Path{Scheme: SchemeS3, Bucket: "models", Key: "resnet/1"}, "s3://models/resnet/1"},
		{Path{Scheme: SchemeS3, Bucket: "models"}, "s3://models"},
		{Path{Scheme: SchemeFile, Key: "/srv/models"}, "/srv/models"},
	}

	for _, tt := range tests {
		if got := tt.path.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
