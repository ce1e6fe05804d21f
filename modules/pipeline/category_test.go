package pipeline

import "testing"

// 카테고리 파싱: 대소문자/공백/한글 별칭 허용, 모르는 값은 general
func TestParseCategory(t *testing.T) {
	cases := []struct {
		input string
		want  Category
	}{
		{"main", CategoryMain},
		{"MAIN", CategoryMain},
		{" main-dish ", CategoryMain},
		{"메인", CategoryMain},
		{"side", CategorySide},
		{"반찬", CategorySide},
		{"dessert", CategoryDessert},
		{"디저트", CategoryDessert},
		{"beverage", CategoryBeverage},
		{"drink", CategoryBeverage},
		{"음료", CategoryBeverage},
		{"", CategoryGeneral},
		{"kimchi", CategoryGeneral},
	}

	for _, tc := range cases {
		if got := ParseCategory(tc.input); got != tc.want {
			t.Errorf("ParseCategory(%q) = %v, 기대값 %v", tc.input, got, tc.want)
		}
	}
}

// 테이블 디스패치: 카테고리별 전용 테이블, 나머지는 general 테이블
func TestCategoryTable(t *testing.T) {
	cases := []struct {
		category Category
		want     string
	}{
		{CategoryMain, "bapsang_dish_main"},
		{CategorySide, "bapsang_dish_side"},
		{CategoryDessert, "bapsang_dish_dessert"},
		{CategoryBeverage, "bapsang_dish_beverage"},
		{CategoryGeneral, "bapsang_dish_general"},
		{Category(99), "bapsang_dish_general"}, // 범위 밖 값도 fallback
	}

	for _, tc := range cases {
		if got := tc.category.Table(); got != tc.want {
			t.Errorf("%v.Table() = %s, 기대값 %s", tc.category, got, tc.want)
		}
	}
}

// 재료 목록은 main/side에만 포함됨
func TestCategoryHasIngredients(t *testing.T) {
	if !CategoryMain.HasIngredients() || !CategorySide.HasIngredients() {
		t.Error("main/side는 재료 목록을 포함해야 함")
	}
	if CategoryDessert.HasIngredients() || CategoryBeverage.HasIngredients() || CategoryGeneral.HasIngredients() {
		t.Error("dessert/beverage/general은 재료 목록을 포함하면 안 됨")
	}
}
