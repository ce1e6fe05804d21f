package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"

	"bapsang-intake-server/modules/common/config"
)

// Client - Supabase Storage 클라이언트
type Client struct {
	httpClient *http.Client
}

// NewClient - Storage 클라이언트 생성
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{},
	}
}

// Upload - Supabase Storage에 파일 업로드
func (c *Client) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	cfg := config.GetConfig()

	log.Printf("📤 Uploading to storage: %s (%d bytes)", key, len(data))

	// Supabase Storage API URL
	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s",
		cfg.SupabaseURL, cfg.StorageBucket, key)

	req, err := http.NewRequestWithContext(ctx, "POST", uploadURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+cfg.SupabaseServiceKey)
	req.Header.Set("Content-Type", contentType)

	// 업로드 실행
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(body))
	}

	log.Printf("✅ Uploaded successfully: %s", key)
	return nil
}

// PublicRef - 업로드된 파일의 공개 URL 생성
func (c *Client) PublicRef(key string) (string, error) {
	cfg := config.GetConfig()

	if cfg.SupabaseStorageBaseURL != "" {
		return cfg.SupabaseStorageBaseURL + key, nil
	}

	if cfg.SupabaseURL == "" {
		return "", fmt.Errorf("no storage base URL configured for key: %s", key)
	}

	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s",
		cfg.SupabaseURL, cfg.StorageBucket, key), nil
}
