package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	storage_go "github.com/supabase-community/storage-go"
)

// Supabase stores artifacts in a public Supabase Storage bucket.
type Supabase struct {
	client    *storage_go.Client
	baseURL   string
	bucket    string
	directory string
}

func NewSupabase(supabaseURL, key, bucket string) *Supabase {
	base := strings.TrimRight(supabaseURL, "/")
	return &Supabase{
		client:    storage_go.NewClient(base+"/storage/v1", key, nil),
		baseURL:   base,
		bucket:    bucket,
		directory: "audio",
	}
}

func (s *Supabase) objectPath(name string) string {
	return s.directory + "/" + name
}

func (s *Supabase) Save(_ context.Context, name string, data []byte, contentType string) (string, error) {
	upsert := true
	_, err := s.client.UploadFile(s.bucket, s.objectPath(name), bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("upload to supabase: %w", err)
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, s.objectPath(name)), nil
}

func (s *Supabase) Delete(_ context.Context, location string) error {
	if _, err := s.client.RemoveFile(s.bucket, []string{s.objectPath(nameFromLocation(location))}); err != nil {
		return fmt.Errorf("remove from supabase: %w", err)
	}
	return nil
}
