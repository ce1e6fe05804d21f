package pipeline

import (
	"fmt"
	"strings"
)

// Gate - 제출 배치 사전 검증기
// 실패는 첫 번째 위반에서 즉시 중단됨 (필드 우선순위 고정)
type Gate struct {
	MinImages int
}

// NewGate - 최소 이미지 수 기준으로 Gate 생성
func NewGate(minImages int) *Gate {
	return &Gate{MinImages: minImages}
}

// Validate - 배치 전체 검증. 통과하면 nil, 실패하면 첫 위반의 FieldError 반환
// 검사 순서: 제출자명 → dish별 (이름 → 카테고리 → 이미지 수)
func (g *Gate) Validate(batch *Batch) *FieldError {
	if strings.TrimSpace(batch.SubmitterName) == "" {
		return &FieldError{
			Field:   "submitterName",
			Message: "submitter name is required",
		}
	}

	for i, dish := range batch.Dishes {
		if strings.TrimSpace(dish.Name) == "" {
			return &FieldError{
				Field:   fmt.Sprintf("dishes.%d.name", i),
				Message: "dish name is required",
			}
		}
		if strings.TrimSpace(dish.Category) == "" {
			return &FieldError{
				Field:   fmt.Sprintf("dishes.%d.category", i),
				Message: "dish category is required",
			}
		}
		if len(dish.RawImages) < g.MinImages {
			return &FieldError{
				Field:   fmt.Sprintf("dishes.%d.images", i),
				Message: fmt.Sprintf("at least %d images are required, got %d", g.MinImages, len(dish.RawImages)),
			}
		}
	}

	return nil
}
