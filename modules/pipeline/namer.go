package pipeline

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

const (
	keyPrefix      = "dish-uploads"
	sharedScope    = "shared-assets"
	anonymousScope = "anonymous"
)

// Namer - 저장소 키 생성기
// owner/카테고리 scope + 파일별 랜덤 segment로 충돌을 방지함.
// 랜덤 소스와 시계는 주입 가능 (테스트에서 고정 seed로 재현)
type Namer struct {
	mu   sync.Mutex
	now  func() time.Time
	rand *rand.Rand
}

// NewNamer - 기본 Namer 생성 (현재 시각 + 시간 기반 seed)
func NewNamer() *Namer {
	return NewNamerWithSource(time.Now, rand.NewSource(time.Now().UnixNano()))
}

// NewNamerWithSource - 시계와 랜덤 소스를 주입하여 생성
func NewNamerWithSource(now func() time.Time, src rand.Source) *Namer {
	return &Namer{
		now:  now,
		rand: rand.New(src),
	}
}

// DishImageKey - dish 이미지 1장의 저장소 키 생성
// 형식: dish-uploads/{user-<id>|anonymous}/<category>/dish_<millis>_<rand>.webp
func (n *Namer) DishImageKey(ownerID *string, category string) string {
	millis, randomID := n.next()
	return fmt.Sprintf("%s/%s/%s/dish_%d_%06d.webp",
		keyPrefix, ownerScope(ownerID), ParseCategory(category).String(), millis, randomID)
}

// SharedAssetKey - 배치 공유 자산의 저장소 키 생성 (dish별 아님)
// 형식: dish-uploads/shared-assets/{user-<id>|anonymous}/shared_<millis>_<rand>_<name>
func (n *Namer) SharedAssetKey(ownerID *string, fileName string) string {
	millis, randomID := n.next()
	return fmt.Sprintf("%s/%s/%s/shared_%d_%06d_%s",
		keyPrefix, sharedScope, ownerScope(ownerID), millis, randomID, sanitizeFileName(fileName))
}

// next - 타임스탬프(ms) + 랜덤 segment 생성. rand는 goroutine-safe하지 않으므로 lock
func (n *Namer) next() (int64, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	millis := n.now().UnixNano() / int64(time.Millisecond)
	return millis, n.rand.Intn(999999)
}

// ownerScope - owner scope segment (비회원은 anonymous)
func ownerScope(ownerID *string) string {
	if ownerID == nil || *ownerID == "" {
		return anonymousScope
	}
	return "user-" + *ownerID
}

// sanitizeFileName - 저장소 키에 안전한 파일명으로 정리
func sanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "file"
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
