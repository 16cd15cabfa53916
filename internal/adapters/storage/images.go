package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// ComplaintImageStore keeps accepted complaint photos in one bucket.
// Object keys are grouped per sender hash and day; the raw phone number
// never appears in a key.
type ComplaintImageStore struct {
	svc    StorageService
	bucket string
	now    func() time.Time
}

// NewComplaintImageStore creates an image store on top of svc.
func NewComplaintImageStore(svc StorageService, bucket string) *ComplaintImageStore {
	return &ComplaintImageStore{svc: svc, bucket: bucket, now: time.Now}
}

// StoreImage validates and uploads an image. The returned reference has the
// form "<bucket>/<key>".
func (s *ComplaintImageStore) StoreImage(ctx context.Context, senderID string, data []byte, mimeType string) (string, error) {
	if !IsImageContentType(mimeType) {
		return "", fmt.Errorf("content type %q is not an image", mimeType)
	}
	if err := s.svc.ValidateContentType(mimeType); err != nil {
		return "", err
	}
	if err := s.svc.ValidateFileSize(int64(len(data))); err != nil {
		return "", err
	}

	folder := senderFolder(senderID) + "/" + s.now().UTC().Format("2006-01-02")
	key, err := s.svc.UploadFile(ctx, s.bucket, folder, "complaint"+ExtensionFor(mimeType),
		NormalizeContentType(mimeType), bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	return s.bucket + "/" + key, nil
}

// DownloadURL presigns a reference produced by StoreImage. References from
// other stores return ok=false.
func (s *ComplaintImageStore) DownloadURL(ctx context.Context, ref string) (string, bool, error) {
	key, ok := strings.CutPrefix(ref, s.bucket+"/")
	if !ok || key == "" {
		return "", false, nil
	}
	url, err := s.svc.GenerateDownloadURL(ctx, s.bucket, key)
	if err != nil {
		return "", false, err
	}
	return url.URL, true, nil
}

func senderFolder(senderID string) string {
	sum := sha256.Sum256([]byte(senderID))
	return "senders/" + hex.EncodeToString(sum[:8])
}
