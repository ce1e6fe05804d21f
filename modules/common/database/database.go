package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/supabase-community/supabase-go"

	"bapsang-intake-server/modules/common/config"
	"bapsang-intake-server/modules/common/model"
)

// Client - Supabase Database 클라이언트
type Client struct {
	supabase *supabase.Client
}

// NewClient - Database 클라이언트 생성
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

// InsertDish - 카테고리별 dish 테이블에 레코드 생성, dish_id 반환
func (c *Client) InsertDish(ctx context.Context, table string, fields map[string]interface{}) (int64, error) {
	log.Printf("💾 Inserting dish record into %s", table)

	data, _, err := c.supabase.From(table).
		Insert(fields, false, "", "", "").
		Execute()

	if err != nil {
		return 0, fmt.Errorf("failed to insert dish record: %w", err)
	}

	var rows []model.DishRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return 0, fmt.Errorf("failed to parse dish response: %w", err)
	}

	if len(rows) == 0 {
		return 0, fmt.Errorf("no dish record returned from %s", table)
	}

	log.Printf("✅ Dish record created: ID=%d (table: %s)", rows[0].DishID, table)
	return rows[0].DishID, nil
}

// InsertSubmission - bapsang_submissions 테이블에 레코드 생성
func (c *Client) InsertSubmission(ctx context.Context, fields map[string]interface{}) (*model.SubmissionRow, error) {
	log.Printf("💾 Inserting submission record")

	data, _, err := c.supabase.From("bapsang_submissions").
		Insert(fields, false, "", "", "").
		Execute()

	if err != nil {
		return nil, fmt.Errorf("failed to insert submission record: %w", err)
	}

	var rows []model.SubmissionRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse submission response: %w", err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("no submission record returned")
	}

	log.Printf("✅ Submission record created: ID=%d", rows[0].SubmissionID)
	return &rows[0], nil
}

// CreateJob - bapsang_submission_jobs 테이블에 Job 레코드 생성
func (c *Client) CreateJob(ctx context.Context, jobID string, ownerID *string, totalDishes int) error {
	log.Printf("💾 Creating submission job: %s (%d dishes)", jobID, totalDishes)

	insertData := map[string]interface{}{
		"job_id":       jobID,
		"job_status":   model.StatusPending,
		"owner_id":     ownerID,
		"total_dishes": totalDishes,
	}

	_, _, err := c.supabase.From("bapsang_submission_jobs").
		Insert(insertData, false, "", "", "").
		Execute()

	if err != nil {
		return fmt.Errorf("failed to create job record: %w", err)
	}

	log.Printf("✅ Job record created: %s", jobID)
	return nil
}

// FetchJob - Supabase에서 Job 데이터 조회
func (c *Client) FetchJob(jobID string) (*model.SubmissionJob, error) {
	log.Printf("🔍 Fetching job from Supabase: %s", jobID)

	var jobs []model.SubmissionJob

	data, _, err := c.supabase.From("bapsang_submission_jobs").
		Select("*", "exact", false).
		Eq("job_id", jobID).
		Execute()

	if err != nil {
		return nil, fmt.Errorf("failed to query Supabase: %w", err)
	}

	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(jobs) == 0 {
		return nil, fmt.Errorf("job not found: %s", jobID)
	}

	job := &jobs[0]
	log.Printf("✅ Job fetched successfully: %s (status: %s, total_dishes: %d)",
		job.JobID, job.JobStatus, job.TotalDishes)

	return job, nil
}

// UpdateJobStatus - Job 상태 업데이트
func (c *Client) UpdateJobStatus(ctx context.Context, jobID string, status string) error {
	log.Printf("📝 Updating job %s status to: %s", jobID, status)

	updateData := map[string]interface{}{
		"job_status": status,
		"updated_at": "now()",
	}

	if status == model.StatusProcessing {
		updateData["started_at"] = "now()"
	} else if status == model.StatusCompleted || status == model.StatusFailed || status == model.StatusUserCancelled {
		updateData["completed_at"] = "now()"
	}

	_, _, err := c.supabase.From("bapsang_submission_jobs").
		Update(updateData, "", "").
		Eq("job_id", jobID).
		Execute()

	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	log.Printf("✅ Job %s status updated to: %s", jobID, status)
	return nil
}

// UpdateJobProgress - Job 진행 상황 업데이트
func (c *Client) UpdateJobProgress(ctx context.Context, jobID string, completedDishes int) error {
	updateData := map[string]interface{}{
		"completed_dishes": completedDishes,
		"updated_at":       "now()",
	}

	_, _, err := c.supabase.From("bapsang_submission_jobs").
		Update(updateData, "", "").
		Eq("job_id", jobID).
		Execute()

	if err != nil {
		return fmt.Errorf("failed to update job progress: %w", err)
	}

	return nil
}

// SetJobError - Job 에러 메시지 기록
func (c *Client) SetJobError(ctx context.Context, jobID string, message string) error {
	log.Printf("📝 Recording job %s error: %s", jobID, message)

	updateData := map[string]interface{}{
		"error_message": message,
		"updated_at":    "now()",
	}

	_, _, err := c.supabase.From("bapsang_submission_jobs").
		Update(updateData, "", "").
		Eq("job_id", jobID).
		Execute()

	if err != nil {
		return fmt.Errorf("failed to record job error: %w", err)
	}

	return nil
}
