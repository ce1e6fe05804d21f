package pipeline

import "sync/atomic"

// Token - 협조적 취소 플래그. Stage 시작과 dish 처리 전에만 체크됨
// (진행 중인 개별 변환/업로드는 끝까지 수행됨)
type Token struct {
	requested atomic.Bool
}

// NewToken - 취소 토큰 생성
func NewToken() *Token {
	return &Token{}
}

// Request - 취소 요청 (여러 번 호출해도 안전)
func (t *Token) Request() {
	t.requested.Store(true)
}

// IsRequested - 취소 요청 여부 확인 (블로킹 없음)
func (t *Token) IsRequested() bool {
	return t.requested.Load()
}
