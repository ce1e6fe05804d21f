package model

import "time"

// SubmissionJob - bapsang_submission_jobs 테이블 구조
type SubmissionJob struct {
	JobID           string     `json:"job_id"`
	JobStatus       string     `json:"job_status"`
	OwnerID         *string    `json:"owner_id"`
	TotalDishes     int        `json:"total_dishes"`
	CompletedDishes int        `json:"completed_dishes"`
	ErrorMessage    *string    `json:"error_message"`
	CreatedAt       time.Time  `json:"created_at"`
	StartedAt       *time.Time `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// DishRow - 카테고리별 dish 테이블 공통 구조
type DishRow struct {
	DishID      int64     `json:"dish_id"`
	CreatedAt   time.Time `json:"created_at"`
	OwnerID     *string   `json:"owner_id"`
	DishName    *string   `json:"dish_name"`
	Description *string   `json:"description"`
	Notes       *string   `json:"notes"`
	ImageRefs   []string  `json:"image_refs"`
}

// SubmissionRow - bapsang_submissions 테이블 구조
type SubmissionRow struct {
	SubmissionID  int64     `json:"submission_id"`
	CreatedAt     time.Time `json:"created_at"`
	DishID        int64     `json:"dish_id"`
	OwnerID       *string   `json:"owner_id"`
	Category      string    `json:"category"`
	DishName      string    `json:"dish_name"`
	Status        string    `json:"status"`
	ImageRefs     []string  `json:"image_refs"`
	SubmitterName *string   `json:"submitter_name"`
	Organization  *string   `json:"organization"`
	AuxRefs       []string  `json:"aux_refs"`
	AuxNotes      *string   `json:"aux_notes"`
}

// Member - bapsang_member 테이블 구조 (쿼터 관리용)
type Member struct {
	MemberID             string  `json:"member_id"`
	DisplayName          *string `json:"display_name"`
	Organization         *string `json:"organization"`
	RemainingSubmissions int     `json:"remaining_submissions"`
}

const (
	StatusPending       = "pending"
	StatusProcessing    = "processing"
	StatusCompleted     = "completed"
	StatusFailed        = "failed"
	StatusUserCancelled = "user_cancelled"
)
