package pipeline

import "testing"

// 전체 진행률은 4개 stage 진행률의 산술 평균 반올림이어야 함
func TestTrackerOverallIsRoundedMean(t *testing.T) {
	tr := NewTracker(2)

	if tr.Overall() != 0 {
		t.Errorf("초기 전체 진행률 = %d, 기대값 0", tr.Overall())
	}

	tr.SetStage(StageCompress, 100, "", nil)
	tr.SetStage(StageUpload, 50, "", nil)
	// (100 + 50 + 0 + 0) / 4 = 37.5 → 38
	if got := tr.Overall(); got != 38 {
		t.Errorf("전체 진행률 = %d, 기대값 38", got)
	}

	tr.SetStage(StagePersist, 100, "", nil)
	tr.SetStage(StageNotify, 100, "", nil)
	tr.SetStage(StageUpload, 100, "", nil)
	if got := tr.Overall(); got != 100 {
		t.Errorf("전체 진행률 = %d, 기대값 100", got)
	}
}

// status는 입력에서 유도됨: 에러 → failed, 100 → done, 그 외 → active
func TestTrackerStatusDerivation(t *testing.T) {
	tr := NewTracker(1)

	tr.SetStage(StageCompress, 40, "working", nil)
	if got := tr.StageStatus(StageCompress); got != StatusActive {
		t.Errorf("상태 = %s, 기대값 active", got)
	}

	tr.SetStage(StageCompress, 100, "done", nil)
	if got := tr.StageStatus(StageCompress); got != StatusDone {
		t.Errorf("상태 = %s, 기대값 done", got)
	}

	tr.SetStage(StageUpload, 30, "broken", &StageError{Stage: StageUpload, Err: errSentinel})
	if got := tr.StageStatus(StageUpload); got != StatusFailed {
		t.Errorf("상태 = %s, 기대값 failed", got)
	}
	// 실패해도 앞 stage는 done으로 유지됨
	if got := tr.StageStatus(StageCompress); got != StatusDone {
		t.Errorf("compress 상태 = %s, 기대값 done", got)
	}
}

// 진행률은 0~100 범위로 고정됨
func TestTrackerClampsProgress(t *testing.T) {
	tr := NewTracker(1)

	tr.SetStage(StageCompress, 150, "", nil)
	if got := tr.Snapshot().Stages[0].Progress; got != 100 {
		t.Errorf("진행률 = %d, 기대값 100", got)
	}

	tr.SetStage(StageUpload, -10, "", nil)
	if got := tr.Snapshot().Stages[1].Progress; got != 0 {
		t.Errorf("진행률 = %d, 기대값 0", got)
	}
}

// observer는 갱신마다 호출되고 snapshot은 값 복사본이어야 함
func TestTrackerObserverReceivesSnapshots(t *testing.T) {
	tr := NewTracker(3)

	var snaps []Snapshot
	tr.SetObserver(func(s Snapshot) {
		snaps = append(snaps, s)
	})

	tr.SetStage(StageCompress, 50, "halfway", nil)
	tr.SetCurrentDish(2)

	if len(snaps) != 2 {
		t.Fatalf("observer 호출 횟수 = %d, 기대값 2", len(snaps))
	}
	if snaps[0].Stages[0].Progress != 50 {
		t.Errorf("첫 snapshot 진행률 = %d, 기대값 50", snaps[0].Stages[0].Progress)
	}
	if snaps[1].CurrentDish != 2 || snaps[1].TotalDishes != 3 {
		t.Errorf("dish 카운터 = %d/%d, 기대값 2/3", snaps[1].CurrentDish, snaps[1].TotalDishes)
	}

	// 이후 갱신이 이전 snapshot을 바꾸면 안 됨
	tr.SetStage(StageCompress, 90, "", nil)
	if snaps[0].Stages[0].Progress != 50 {
		t.Error("snapshot이 값 복사본이 아님")
	}
}
