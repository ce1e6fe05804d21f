package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"bapsang-intake-server/modules/common/config"
)

// WebhookNotifier - 제출 완료 webhook 전송 클라이언트
type WebhookNotifier struct {
	httpClient *http.Client
}

// NewWebhookNotifier - Notifier 생성
func NewWebhookNotifier() *WebhookNotifier {
	return &WebhookNotifier{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Send - webhook POST 전송 (best-effort, 호출부에서 실패를 삼킴)
func (n *WebhookNotifier) Send(ctx context.Context, payload map[string]interface{}) error {
	cfg := config.GetConfig()

	if cfg.WebhookURL == "" {
		log.Printf("⚠️  SUBMISSION_WEBHOOK_URL not configured, skipping notification")
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Printf("📤 Sending submission notification (%d bytes)", len(body))

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("notification failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	log.Printf("✅ Notification delivered (status %d)", resp.StatusCode)
	return nil
}
