package pipeline

import (
	"math"
	"sync"
)

// Stage 상태 상수
const (
	StatusPending = "pending"
	StatusActive  = "active"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// stageOrder - 4개 stage 고정 순서
var stageOrder = [4]string{StageCompress, StageUpload, StagePersist, StageNotify}

// StageState - stage 1개의 진행 상태
type StageState struct {
	Name     string `json:"name"`
	Progress int    `json:"progress"` // 0~100
	Status   string `json:"status"`
	Detail   string `json:"detail"`
	Error    string `json:"error,omitempty"`
}

// Snapshot - 특정 시점의 전체 진행 상태 (값 복사본)
type Snapshot struct {
	Stages      []StageState `json:"stages"`
	Overall     int          `json:"overall"`
	CurrentDish int          `json:"current_dish"`
	TotalDishes int          `json:"total_dishes"`
	Cancellable bool         `json:"cancellable"`
}

// Tracker - 파이프라인 진행 상황 추적기
// worker goroutine들이 동시에 갱신하므로 모든 변경은 mutex로 보호됨
type Tracker struct {
	mu          sync.Mutex
	stages      [4]StageState
	currentDish int
	totalDishes int
	cancellable bool
	observer    func(Snapshot)
}

// NewTracker - Tracker 생성 (모든 stage는 pending 0%로 시작)
func NewTracker(totalDishes int) *Tracker {
	tr := &Tracker{
		totalDishes: totalDishes,
		cancellable: true,
	}
	for i, name := range stageOrder {
		tr.stages[i] = StageState{
			Name:   name,
			Status: StatusPending,
		}
	}
	return tr
}

// SetObserver - 진행 상황 변경 시마다 호출되는 콜백 등록
func (tr *Tracker) SetObserver(fn func(Snapshot)) {
	tr.mu.Lock()
	tr.observer = fn
	tr.mu.Unlock()
}

// SetStage - stage 진행 상황 갱신
// status는 입력값에서 유도됨: error가 있으면 failed, 100%면 done, 아니면 active
func (tr *Tracker) SetStage(name string, progress int, detail string, stageErr error) {
	tr.mu.Lock()

	idx := stageIndex(name)
	if idx < 0 {
		tr.mu.Unlock()
		return
	}

	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	state := &tr.stages[idx]
	state.Progress = progress
	state.Detail = detail

	if stageErr != nil {
		state.Status = StatusFailed
		state.Error = stageErr.Error()
	} else if progress >= 100 {
		state.Status = StatusDone
		state.Error = ""
	} else {
		state.Status = StatusActive
		state.Error = ""
	}

	tr.notifyAndUnlock()
}

// SetCurrentDish - "dish N of M" 표시용 인덱스 갱신 (1-based)
func (tr *Tracker) SetCurrentDish(n int) {
	tr.mu.Lock()
	tr.currentDish = n
	tr.notifyAndUnlock()
}

// SetCancellable - 취소 가능 여부 갱신 (취소 요청 또는 실행 종료 시 false)
func (tr *Tracker) SetCancellable(v bool) {
	tr.mu.Lock()
	tr.cancellable = v
	tr.notifyAndUnlock()
}

// Overall - 전체 진행률 = 4개 stage 진행률의 산술 평균 (반올림)
// stages 외의 독립적인 진행률 저장소는 없음
func (tr *Tracker) Overall() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.overallLocked()
}

// Snapshot - 현재 상태의 값 복사본 반환
func (tr *Tracker) Snapshot() Snapshot {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.snapshotLocked()
}

// StageStatus - stage 상태 조회 (테스트/검증용)
func (tr *Tracker) StageStatus(name string) string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	idx := stageIndex(name)
	if idx < 0 {
		return ""
	}
	return tr.stages[idx].Status
}

// notifyAndUnlock - snapshot은 lock 안에서 찍고 observer 콜백은 lock 밖에서 실행
func (tr *Tracker) notifyAndUnlock() {
	observer := tr.observer
	snap := tr.snapshotLocked()
	tr.mu.Unlock()

	if observer != nil {
		observer(snap)
	}
}

func (tr *Tracker) snapshotLocked() Snapshot {
	stages := make([]StageState, len(tr.stages))
	copy(stages, tr.stages[:])
	return Snapshot{
		Stages:      stages,
		Overall:     tr.overallLocked(),
		CurrentDish: tr.currentDish,
		TotalDishes: tr.totalDishes,
		Cancellable: tr.cancellable,
	}
}

func (tr *Tracker) overallLocked() int {
	sum := 0
	for _, s := range tr.stages {
		sum += s.Progress
	}
	return int(math.Round(float64(sum) / float64(len(tr.stages))))
}

func stageIndex(name string) int {
	for i, n := range stageOrder {
		if n == name {
			return i
		}
	}
	return -1
}
