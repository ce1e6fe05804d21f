package transcode

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // JPEG 디코더 등록
	_ "image/png"  // PNG 디코더 등록
	"log"
	"math"

	_ "github.com/kolesa-team/go-webp/decoder" // WebP 디코더 등록
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

// WebPTranscoder - 원본 이미지를 제한 크기 이하의 WebP로 변환
type WebPTranscoder struct{}

// NewWebPTranscoder - Transcoder 생성
func NewWebPTranscoder() *WebPTranscoder {
	return &WebPTranscoder{}
}

// Transcode - 이미지 디코딩 → 제한 크기로 축소 → WebP 인코딩
func (t *WebPTranscoder) Transcode(data []byte, maxWidth, maxHeight int, quality float32) ([]byte, error) {
	// 이미지 디코딩 (JPEG, PNG, WebP 자동 감지)
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()

	// 제한 크기 초과 시에만 축소 (확대하지 않음)
	if srcWidth > maxWidth || srcHeight > maxHeight {
		img = shrinkToFit(img, maxWidth, maxHeight)
		resized := img.Bounds()
		log.Printf("🔄 Resized %s image: %dx%d → %dx%d", format, srcWidth, srcHeight, resized.Dx(), resized.Dy())
	}

	// WebP 인코딩
	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, quality)
	if err != nil {
		return nil, fmt.Errorf("failed to create WebP encoder options: %w", err)
	}

	var webpBuffer bytes.Buffer
	if err := webp.Encode(&webpBuffer, img, options); err != nil {
		return nil, fmt.Errorf("failed to encode WebP: %w", err)
	}

	webpData := webpBuffer.Bytes()

	log.Printf("✅ Image transcoded to WebP: %d bytes → %d bytes (%.1f%% reduction)",
		len(data), len(webpData),
		float64(len(data)-len(webpData))/float64(len(data))*100)

	return webpData, nil
}

// shrinkToFit - 비율을 유지하며 제한 크기 안으로 축소
func shrinkToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	srcBounds := src.Bounds()
	srcWidth := srcBounds.Dx()
	srcHeight := srcBounds.Dy()

	// 비율 계산
	scaleX := float64(maxWidth) / float64(srcWidth)
	scaleY := float64(maxHeight) / float64(srcHeight)
	scale := math.Min(scaleX, scaleY)

	newWidth := int(float64(srcWidth) * scale)
	newHeight := int(float64(srcHeight) * scale)

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))

	// Nearest Neighbor 방식으로 리사이즈
	for y := 0; y < newHeight; y++ {
		for x := 0; x < newWidth; x++ {
			srcX := int(float64(x) / scale)
			srcY := int(float64(y) / scale)
			dst.Set(x, y, src.At(srcX+srcBounds.Min.X, srcY+srcBounds.Min.Y))
		}
	}

	return dst
}
