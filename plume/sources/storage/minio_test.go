package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"plume/plume/config"
)

func TestUploadAuthShape(t *testing.T) {
	store, err := NewImageStore(config.Config{
		MinIOEndpoint:  "localhost:9000",
		MinIOAccessKey: "test-access",
		MinIOSecretKey: "test-secret",
		MinIOBucket:    "test-images",
		MinIORegion:    "us-east-1",
		UploadTTL:      10 * time.Minute,
	})
	if err != nil {
		t.Fatalf("NewImageStore failed: %v", err)
	}

	auth, err := store.UploadAuth(context.Background())
	if err != nil {
		t.Fatalf("UploadAuth failed: %v", err)
	}
	if !strings.HasPrefix(auth.Token, "uploads/") {
		t.Errorf("token = %q, want an uploads/ object key", auth.Token)
	}
	if auth.Expire <= time.Now().Unix() {
		t.Errorf("expire %d must be in the future", auth.Expire)
	}
	if auth.Signature == "" {
		t.Error("signature must be populated")
	}
	if !strings.Contains(auth.URL, "test-images") || !strings.Contains(auth.URL, auth.Token) {
		t.Errorf("upload url %q must target the bucket and token key", auth.URL)
	}

	// each grant is for a fresh object key
	second, err := store.UploadAuth(context.Background())
	if err != nil {
		t.Fatalf("UploadAuth failed: %v", err)
	}
	if second.Token == auth.Token {
		t.Error("upload grants must not reuse object keys")
	}
}
