package pipeline

import "fmt"

// FieldError - 검증 실패. 필드 키로 UI가 해당 입력만 다시 렌더링함
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// QuotaError - 쿼터 부족. 필드 키 없는 일반 에러
type QuotaError struct {
	Remaining int
	Requested int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("submission quota exceeded: %d remaining, %d requested", e.Remaining, e.Requested)
}

// StageError - compress/upload/persist 단계 실패. 실행 전체를 중단시킴
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// CancelledError - 사용자 취소. StageError와 구분되는 종료 상태
type CancelledError struct {
	Stage string
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("submission cancelled by user during %s stage", e.Stage)
}
