package pipeline

import "strings"

// Category - dish 카테고리 (테이블 디스패치용 고정 집합)
type Category int

const (
	CategoryGeneral Category = iota // 기본값 (fallback)
	CategoryMain
	CategorySide
	CategoryDessert
	CategoryBeverage
)

// ParseCategory - 자유 입력 문자열을 카테고리로 변환 (모르는 값은 general)
func ParseCategory(s string) Category {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "main", "main-dish", "메인":
		return CategoryMain
	case "side", "side-dish", "반찬":
		return CategorySide
	case "dessert", "디저트":
		return CategoryDessert
	case "beverage", "drink", "음료":
		return CategoryBeverage
	default:
		return CategoryGeneral
	}
}

// String - 카테고리 슬러그 (경로/레코드에 사용)
func (c Category) String() string {
	switch c {
	case CategoryMain:
		return "main"
	case CategorySide:
		return "side"
	case CategoryDessert:
		return "dessert"
	case CategoryBeverage:
		return "beverage"
	default:
		return "general"
	}
}

// Table - 카테고리별 dish 테이블 매핑 (전체 매핑, default 포함)
func (c Category) Table() string {
	switch c {
	case CategoryMain:
		return "bapsang_dish_main"
	case CategorySide:
		return "bapsang_dish_side"
	case CategoryDessert:
		return "bapsang_dish_dessert"
	case CategoryBeverage:
		return "bapsang_dish_beverage"
	default:
		return "bapsang_dish_general"
	}
}

// HasIngredients - 알림 payload에 재료 목록을 포함하는 카테고리인지 확인
func (c Category) HasIngredients() bool {
	return c == CategoryMain || c == CategorySide
}
