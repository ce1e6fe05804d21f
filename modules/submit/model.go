package submit

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"bapsang-intake-server/modules/pipeline"
)

// DishRequest - dish 1건의 제출 요청 (이미지는 base64)
type DishRequest struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	Images      []string `json:"images"`
}

// AuxFileRequest - 배치 공유 자산 1건
type AuxFileRequest struct {
	Name string `json:"name"`
	Data string `json:"data"` // base64
}

// SubmitRequest - 배치 제출 요청 본문
type SubmitRequest struct {
	SubmitterName string           `json:"submitterName"`
	OwnerID       *string          `json:"ownerId,omitempty"`
	Organization  *string          `json:"organization,omitempty"`
	Dishes        []DishRequest    `json:"dishes"`
	AuxFiles      []AuxFileRequest `json:"auxFiles,omitempty"`
	AuxNotes      string           `json:"auxNotes,omitempty"`
}

// SubmitResponse - 제출 접수 응답
type SubmitResponse struct {
	Success       bool   `json:"success"`
	JobID         string `json:"job_id,omitempty"`
	QueuePosition int64  `json:"queue_position,omitempty"`
	Error         string `json:"error,omitempty"`
	Field         string `json:"field,omitempty"`
}

// CancelResponse - 취소 요청 응답
type CancelResponse struct {
	Success bool   `json:"success"`
	JobID   string `json:"job_id"`
	Message string `json:"message,omitempty"`
}

// ToBatch - 요청 본문을 파이프라인 Batch로 변환 (base64 디코딩 포함)
func (req *SubmitRequest) ToBatch() (*pipeline.Batch, error) {
	batch := &pipeline.Batch{
		SubmitterName: req.SubmitterName,
		OwnerID:       req.OwnerID,
		Organization:  req.Organization,
	}

	for di, dr := range req.Dishes {
		dish := &pipeline.Dish{
			ID:          uuid.New().String(),
			Name:        dr.Name,
			Category:    dr.Category,
			Description: dr.Description,
			Notes:       dr.Notes,
		}
		for ii, encoded := range dr.Images {
			data, err := decodeImage(encoded)
			if err != nil {
				return nil, fmt.Errorf("dishes.%d.images.%d: %w", di, ii, err)
			}
			dish.RawImages = append(dish.RawImages, data)
		}
		batch.Dishes = append(batch.Dishes, dish)
	}

	if len(req.AuxFiles) > 0 || strings.TrimSpace(req.AuxNotes) != "" {
		aux := &pipeline.AuxAssets{Notes: req.AuxNotes}
		for fi, f := range req.AuxFiles {
			data, err := decodeImage(f.Data)
			if err != nil {
				return nil, fmt.Errorf("auxFiles.%d: %w", fi, err)
			}
			aux.Files = append(aux.Files, pipeline.NamedBlob{Name: f.Name, Data: data})
		}
		batch.Aux = aux
	}

	return batch, nil
}

// decodeImage - base64 이미지 디코딩 (data URL prefix 허용)
func decodeImage(encoded string) ([]byte, error) {
	if idx := strings.Index(encoded, ";base64,"); idx >= 0 {
		encoded = encoded[idx+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 data: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}
	return data, nil
}
