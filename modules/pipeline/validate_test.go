package pipeline

import "testing"

func imageSet(n int) [][]byte {
	images := make([][]byte, n)
	for i := range images {
		images[i] = []byte{0xFF, 0xD8, byte(i)}
	}
	return images
}

func validBatch(dishes int) *Batch {
	batch := &Batch{SubmitterName: "김밥상"}
	for i := 0; i < dishes; i++ {
		batch.Dishes = append(batch.Dishes, &Dish{
			Name:      "된장찌개",
			Category:  "main",
			RawImages: imageSet(4),
		})
	}
	return batch
}

// 제출자명이 없으면 dish 내용과 무관하게 submitterName 에러가 먼저 나와야 함
func TestValidateSubmitterNameFirst(t *testing.T) {
	gate := NewGate(4)
	batch := validBatch(1)
	batch.SubmitterName = "   "
	batch.Dishes[0].Name = "" // dish 에러도 동시에 존재

	fieldErr := gate.Validate(batch)
	if fieldErr == nil {
		t.Fatal("검증 에러가 반환되어야 함")
	}
	if fieldErr.Field != "submitterName" {
		t.Errorf("필드 = %s, 기대값 submitterName", fieldErr.Field)
	}
}

// dish 이름 누락은 같은 dish의 카테고리 누락보다 먼저 보고되어야 함
func TestValidateNameBeforeCategory(t *testing.T) {
	gate := NewGate(4)
	batch := validBatch(1)
	batch.Dishes[0].Name = ""
	batch.Dishes[0].Category = ""

	fieldErr := gate.Validate(batch)
	if fieldErr == nil {
		t.Fatal("검증 에러가 반환되어야 함")
	}
	if fieldErr.Field != "dishes.0.name" {
		t.Errorf("필드 = %s, 기대값 dishes.0.name", fieldErr.Field)
	}
}

// 카테고리 누락은 이미지 수 부족보다 먼저 보고되어야 함
func TestValidateCategoryBeforeImages(t *testing.T) {
	gate := NewGate(4)
	batch := validBatch(1)
	batch.Dishes[0].Category = ""
	batch.Dishes[0].RawImages = imageSet(1)

	fieldErr := gate.Validate(batch)
	if fieldErr == nil {
		t.Fatal("검증 에러가 반환되어야 함")
	}
	if fieldErr.Field != "dishes.0.category" {
		t.Errorf("필드 = %s, 기대값 dishes.0.category", fieldErr.Field)
	}
}

// 최소 이미지 수 미달 검사 (경계값 포함)
func TestValidateMinImages(t *testing.T) {
	gate := NewGate(4)

	batch := validBatch(2)
	batch.Dishes[1].RawImages = imageSet(3)

	fieldErr := gate.Validate(batch)
	if fieldErr == nil {
		t.Fatal("검증 에러가 반환되어야 함")
	}
	if fieldErr.Field != "dishes.1.images" {
		t.Errorf("필드 = %s, 기대값 dishes.1.images", fieldErr.Field)
	}

	// 정확히 4장이면 통과
	batch.Dishes[1].RawImages = imageSet(4)
	if fieldErr := gate.Validate(batch); fieldErr != nil {
		t.Errorf("4장이면 통과해야 함: %v", fieldErr)
	}
}

// 빈 배치는 제출자명만 있으면 검증을 통과함
func TestValidateEmptyBatch(t *testing.T) {
	gate := NewGate(4)
	batch := &Batch{SubmitterName: "김밥상"}

	if fieldErr := gate.Validate(batch); fieldErr != nil {
		t.Errorf("빈 배치는 통과해야 함: %v", fieldErr)
	}
}
