package pipeline

import (
	"math/rand"
	"strings"
	"testing"
	"time"
)

func fixedClock(millis int64) func() time.Time {
	return func() time.Time {
		return time.UnixMilli(millis)
	}
}

// 같은 seed + 같은 시계면 키 순서가 완전히 재현되어야 함
func TestNamerDeterministic(t *testing.T) {
	owner := "member-42"

	a := NewNamerWithSource(fixedClock(1700000000000), rand.NewSource(7))
	b := NewNamerWithSource(fixedClock(1700000000000), rand.NewSource(7))

	for i := 0; i < 10; i++ {
		keyA := a.DishImageKey(&owner, "main")
		keyB := b.DishImageKey(&owner, "main")
		if keyA != keyB {
			t.Fatalf("키 불일치 (i=%d): %s != %s", i, keyA, keyB)
		}
	}
}

// 같은 타임스탬프여도 랜덤 segment로 연속 키가 달라야 함
func TestNamerNoCollisionSameMillis(t *testing.T) {
	namer := NewNamerWithSource(fixedClock(1700000000000), rand.NewSource(1))

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		key := namer.DishImageKey(nil, "side")
		if seen[key] {
			t.Fatalf("키 충돌: %s", key)
		}
		seen[key] = true
	}
}

// 키 구조 확인: prefix / owner scope / 카테고리 슬러그 / .webp 확장자
func TestNamerDishImageKeyLayout(t *testing.T) {
	owner := "member-42"
	namer := NewNamerWithSource(fixedClock(1700000000000), rand.NewSource(3))

	key := namer.DishImageKey(&owner, "디저트")
	if !strings.HasPrefix(key, "dish-uploads/user-member-42/dessert/dish_1700000000000_") {
		t.Errorf("키 구조가 다름: %s", key)
	}
	if !strings.HasSuffix(key, ".webp") {
		t.Errorf("webp 확장자가 없음: %s", key)
	}

	// 비회원은 anonymous scope
	anonKey := namer.DishImageKey(nil, "unknown-category")
	if !strings.HasPrefix(anonKey, "dish-uploads/anonymous/general/") {
		t.Errorf("비회원 키 구조가 다름: %s", anonKey)
	}
}

// 공유 자산 키: shared-assets scope + 파일명 정리
func TestNamerSharedAssetKey(t *testing.T) {
	namer := NewNamerWithSource(fixedClock(1700000000000), rand.NewSource(3))

	key := namer.SharedAssetKey(nil, "메뉴 설명 v2.pdf")
	if !strings.HasPrefix(key, "dish-uploads/shared-assets/anonymous/shared_1700000000000_") {
		t.Errorf("키 구조가 다름: %s", key)
	}
	if !strings.HasSuffix(key, ".pdf") {
		t.Errorf("확장자가 보존되어야 함: %s", key)
	}
	if strings.Contains(key, " ") {
		t.Errorf("공백이 정리되어야 함: %s", key)
	}
}
