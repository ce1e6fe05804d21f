package quota

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/supabase-community/supabase-go"

	"bapsang-intake-server/modules/common/config"
)

// Client - 제출 쿼터 클라이언트
type Client struct {
	supabase *supabase.Client
}

// NewClient - Quota 클라이언트 생성
func NewClient() *Client {
	cfg := config.GetConfig()

	supabaseClient, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, &supabase.ClientOptions{})
	if err != nil {
		log.Printf("❌ Failed to create Supabase client: %v", err)
		return nil
	}

	return &Client{
		supabase: supabaseClient,
	}
}

// Remaining - 회원의 남은 제출 가능 건수 조회
func (c *Client) Remaining(ctx context.Context, ownerID string) (int, error) {
	var members []struct {
		RemainingSubmissions int `json:"remaining_submissions"`
	}

	data, _, err := c.supabase.From("bapsang_member").
		Select("remaining_submissions", "", false).
		Eq("member_id", ownerID).
		Execute()

	if err != nil {
		return 0, fmt.Errorf("failed to fetch member quota: %w", err)
	}

	if err := json.Unmarshal(data, &members); err != nil {
		return 0, fmt.Errorf("failed to parse member data: %w", err)
	}

	if len(members) == 0 {
		return 0, fmt.Errorf("member not found: %s", ownerID)
	}

	remaining := members[0].RemainingSubmissions
	log.Printf("💰 Quota for %s: %d submissions remaining", ownerID, remaining)
	return remaining, nil
}

// Consume - 제출 1건당 쿼터 차감 및 감사 기록
func (c *Client) Consume(ctx context.Context, ownerID string, submissionID int64, dishName string) error {
	current, err := c.Remaining(ctx, ownerID)
	if err != nil {
		return err
	}

	newBalance := current - 1
	log.Printf("💰 Quota balance for %s: %d → %d", ownerID, current, newBalance)

	// 쿼터 차감
	_, _, err = c.supabase.From("bapsang_member").
		Update(map[string]interface{}{
			"remaining_submissions": newBalance,
		}, "", "").
		Eq("member_id", ownerID).
		Execute()

	if err != nil {
		return fmt.Errorf("failed to decrement quota: %w", err)
	}

	// 감사 기록
	auditData := map[string]interface{}{
		"member_id":      ownerID,
		"change_type":    "CONSUME",
		"amount":         -1,
		"balance_after":  newBalance,
		"note":           fmt.Sprintf("Dish submission: %s", dishName),
		"submission_idx": submissionID,
	}

	_, _, err = c.supabase.From("bapsang_quota_log").
		Insert(auditData, false, "", "", "").
		Execute()

	if err != nil {
		log.Printf("⚠️  Failed to record quota audit for submission %d: %v", submissionID, err)
	}

	log.Printf("✅ Quota consumed: 1 submission from member %s", ownerID)
	return nil
}
