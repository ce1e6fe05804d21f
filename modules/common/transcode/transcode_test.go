package transcode

import (
	"image"
	"testing"
)

// 제한 크기 초과 이미지는 비율을 유지하며 축소되어야 함
func TestShrinkToFitKeepsRatio(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3200, 2400)) // 4:3

	dst := shrinkToFit(src, 1600, 1600)
	bounds := dst.Bounds()

	if bounds.Dx() != 1600 || bounds.Dy() != 1200 {
		t.Errorf("축소 결과 = %dx%d, 기대값 1600x1200", bounds.Dx(), bounds.Dy())
	}
}

// 세로가 더 긴 이미지는 세로 기준으로 축소됨
func TestShrinkToFitPortrait(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1000, 4000))

	dst := shrinkToFit(src, 1600, 1600)
	bounds := dst.Bounds()

	if bounds.Dy() != 1600 || bounds.Dx() != 400 {
		t.Errorf("축소 결과 = %dx%d, 기대값 400x1600", bounds.Dx(), bounds.Dy())
	}
}

// 원점이 0이 아닌 이미지도 올바르게 샘플링되어야 함
func TestShrinkToFitOffsetBounds(t *testing.T) {
	src := image.NewRGBA(image.Rect(100, 100, 3300, 2500))

	dst := shrinkToFit(src, 1600, 1600)
	bounds := dst.Bounds()

	if bounds.Min.X != 0 || bounds.Min.Y != 0 {
		t.Errorf("결과 원점 = %v, 기대값 (0,0)", bounds.Min)
	}
	if bounds.Dx() != 1600 || bounds.Dy() != 1200 {
		t.Errorf("축소 결과 = %dx%d, 기대값 1600x1200", bounds.Dx(), bounds.Dy())
	}
}
