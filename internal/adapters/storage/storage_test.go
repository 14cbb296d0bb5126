package storage

import (
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
)

func TestKeyHelpers(t *testing.T) {
	tests := []struct {
		prefix, key, relative, joined string
	}{
		{"", "a/b.shp", "a/b.shp", "a/b.shp"},
		{"csi", "csi/a/b.shp", "a/b.shp", "csi/csi/a/b.shp"},
		{"csi/", "csi/b.gpkg", "b.gpkg", "csi/csi/b.gpkg"},
	}
	for _, tt := range tests {
		if got := relativeKey(tt.key, tt.prefix); got != tt.relative {
			t.Errorf("relativeKey(%q, %q) = %q, want %q", tt.key, tt.prefix, got, tt.relative)
		}
		if got := joinKey(tt.prefix, tt.key); got != tt.joined {
			t.Errorf("joinKey(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.joined)
		}
	}
}

func TestUnquoteETag(t *testing.T) {
	if got := unquoteETag(`"abc"`); got != "abc" {
		t.Errorf("unquoteETag = %q", got)
	}
	if got := unquoteETag("abc"); got != "abc" {
		t.Errorf("unquoteETag = %q", got)
	}
}

func TestBlobObject(t *testing.T) {
	name := "csi/uv/UV.dbf"
	size := int64(2048)
	modified := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	etag := azcore.ETag("0x8DC")

	obj, ok := blobObject(&container.BlobItem{
		Name: &name,
		Properties: &container.BlobProperties{
			ContentLength: &size,
			LastModified:  &modified,
			ETag:          &etag,
		},
	}, "csi")
	if !ok {
		t.Fatal("blobObject skipped a .dbf blob")
	}
	if obj.Key != "uv/UV.dbf" || obj.Size != size || obj.LastModified != modified.Unix() || obj.ETag != "0x8DC" {
		t.Errorf("blobObject() = %+v", obj)
	}

	other := "csi/readme.md"
	if _, ok := blobObject(&container.BlobItem{Name: &other}, "csi"); ok {
		t.Error("blobObject kept a non-dataset blob")
	}
}
