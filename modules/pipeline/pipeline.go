// Package pipeline - dish 제출 배치 파이프라인 (압축 → 업로드 → 저장 → 알림)
package pipeline

import (
	"context"

	"bapsang-intake-server/modules/common/model"
)

// Stage 이름 상수 - 진행 상황 추적용 (순서 고정)
const (
	StageCompress = "compress"
	StageUpload   = "upload"
	StagePersist  = "persist"
	StageNotify   = "notify"
)

// SourceTag - 알림 payload에 포함되는 발신자 태그
const SourceTag = "bapsang-intake"

// Dish - 사용자가 작성한 제출 단위 (텍스트 필드 + 원본 이미지)
type Dish struct {
	ID          string
	Name        string
	Category    string
	Description string
	Notes       string

	// RawImages - 원본 이미지. 제출 전 최소 장수 검증됨
	RawImages [][]byte

	// Transcoded - Stage 1에서 채워짐 (RawImages와 같은 길이/순서)
	Transcoded [][]byte

	// UploadedRefs - Stage 2에서 채워짐 (RawImages와 같은 길이/순서)
	UploadedRefs []string
}

// NamedBlob - 이름이 있는 파일 데이터 (공유 자산용)
type NamedBlob struct {
	Name string
	Data []byte
}

// AuxAssets - 배치 전체에 공유되는 추가 자산 (dish별 아님, 1회 업로드)
type AuxAssets struct {
	Files []NamedBlob
	Notes string

	// UploadedRefs - Stage 2에서 채워짐
	UploadedRefs []string
}

// Batch - 파이프라인 1회 실행 단위
type Batch struct {
	Dishes        []*Dish
	SubmitterName string
	OwnerID       *string // nil이면 비회원 제출
	Organization  *string
	Aux           *AuxAssets
}

// CreatedSubmission - Stage 3의 dish별 결과물. Stage 4의 알림 payload에 사용됨
type CreatedSubmission struct {
	DishID     int64
	Submission *model.SubmissionRow
	Dish       *Dish

	// NotifyDetail - 알림 실패 시 기록됨 (실행 자체는 실패시키지 않음)
	NotifyDetail string
}

// Outcome - 파이프라인 실행 최종 결과
type Outcome struct {
	Success bool
	Created []*CreatedSubmission
	Message string
	Err     error
}

// Transcoder - 이미지 변환기 (외부 협력자)
type Transcoder interface {
	Transcode(data []byte, maxWidth, maxHeight int, quality float32) ([]byte, error)
}

// BlobStore - 파일 저장소 (외부 협력자)
type BlobStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	PublicRef(key string) (string, error)
}

// RecordStore - 레코드 저장소 (외부 협력자)
type RecordStore interface {
	InsertDish(ctx context.Context, table string, fields map[string]interface{}) (int64, error)
	InsertSubmission(ctx context.Context, fields map[string]interface{}) (*model.SubmissionRow, error)
}

// QuotaSource - 제출 쿼터 조회/차감 (외부 협력자)
type QuotaSource interface {
	Remaining(ctx context.Context, ownerID string) (int, error)
	Consume(ctx context.Context, ownerID string, submissionID int64, dishName string) error
}

// Notifier - 제출 알림 전송 (외부 협력자, best-effort)
type Notifier interface {
	Send(ctx context.Context, payload map[string]interface{}) error
}
