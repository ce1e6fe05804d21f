package pipeline

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"bapsang-intake-server/modules/common/model"
)

// 기본 설정값 (Deps에서 0이면 적용됨)
const (
	defaultMinImages      = 4
	defaultMaxImageWidth  = 1600
	defaultMaxImageHeight = 1600
	defaultWebPQuality    = 82.0
	defaultWorkers        = 3
)

// Deps - Orchestrator의 외부 협력자와 설정
type Deps struct {
	Transcoder Transcoder
	Blobs      BlobStore
	Records    RecordStore
	Quota      QuotaSource
	Notifier   Notifier
	Namer      *Namer

	MinImages      int
	MaxImageWidth  int
	MaxImageHeight int
	WebPQuality    float32
	Workers        int
}

// Orchestrator - 제출 배치를 4단계 파이프라인으로 실행함
// compress → upload → persist → notify 순서 고정, 앞 단계가 끝나야 다음 단계 시작
type Orchestrator struct {
	deps Deps
	gate *Gate
}

// NewOrchestrator - Orchestrator 생성 (설정 누락 시 기본값 적용)
func NewOrchestrator(deps Deps) *Orchestrator {
	if deps.MinImages <= 0 {
		deps.MinImages = defaultMinImages
	}
	if deps.MaxImageWidth <= 0 {
		deps.MaxImageWidth = defaultMaxImageWidth
	}
	if deps.MaxImageHeight <= 0 {
		deps.MaxImageHeight = defaultMaxImageHeight
	}
	if deps.WebPQuality <= 0 {
		deps.WebPQuality = defaultWebPQuality
	}
	if deps.Workers <= 0 {
		deps.Workers = defaultWorkers
	}
	if deps.Namer == nil {
		deps.Namer = NewNamer()
	}
	return &Orchestrator{
		deps: deps,
		gate: NewGate(deps.MinImages),
	}
}

// Run - 배치 1건 실행. 검증과 쿼터 확인을 통과한 뒤 4단계를 순서대로 수행함
// compress/upload/persist 실패는 실행 전체를 중단시키고, notify 실패는 기록만 남김
func (o *Orchestrator) Run(ctx context.Context, batch *Batch, token *Token, observer func(Snapshot)) Outcome {
	tracker := NewTracker(len(batch.Dishes))
	if observer != nil {
		tracker.SetObserver(observer)
	}

	// 1. 입력 검증 - 협력자 호출 전에 수행됨
	if fieldErr := o.gate.Validate(batch); fieldErr != nil {
		log.Printf("❌ Batch validation failed: %s", fieldErr.Error())
		tracker.SetCancellable(false)
		return Outcome{Message: fieldErr.Message, Err: fieldErr}
	}

	// 2. 쿼터 사전 확인 - 회원 제출만 해당, 저장소/업로드보다 먼저
	if batch.OwnerID != nil && *batch.OwnerID != "" {
		remaining, err := o.deps.Quota.Remaining(ctx, *batch.OwnerID)
		if err != nil {
			log.Printf("❌ Quota lookup failed for %s: %v", *batch.OwnerID, err)
			tracker.SetCancellable(false)
			return Outcome{Message: "quota lookup failed", Err: err}
		}
		if remaining < len(batch.Dishes) {
			quotaErr := &QuotaError{Remaining: remaining, Requested: len(batch.Dishes)}
			log.Printf("⚠️ %s", quotaErr.Error())
			tracker.SetCancellable(false)
			return Outcome{Message: quotaErr.Error(), Err: quotaErr}
		}
	}

	// 빈 배치는 검증/쿼터 통과 후 즉시 성공 처리
	if len(batch.Dishes) == 0 {
		for _, name := range stageOrder {
			tracker.SetStage(name, 100, "no dishes", nil)
		}
		tracker.SetCancellable(false)
		log.Printf("✅ Empty batch completed immediately")
		return Outcome{Success: true, Message: "0 dishes processed"}
	}

	log.Printf("🚀 Starting submission pipeline: %d dishes, %d workers", len(batch.Dishes), o.deps.Workers)

	if err := o.runCompress(ctx, batch, token, tracker); err != nil {
		return o.failed(tracker, err)
	}
	if err := o.runUpload(ctx, batch, token, tracker); err != nil {
		return o.failed(tracker, err)
	}
	created, err := o.runPersist(ctx, batch, token, tracker)
	if err != nil {
		return o.failed(tracker, err)
	}
	o.runNotify(ctx, batch, created, tracker)

	tracker.SetCancellable(false)
	message := fmt.Sprintf("%d dishes processed", len(created))
	log.Printf("✅ Pipeline completed: %s", message)
	return Outcome{Success: true, Created: created, Message: message}
}

// failed - 실패/취소 종료 공통 처리
func (o *Orchestrator) failed(tracker *Tracker, err error) Outcome {
	tracker.SetCancellable(false)
	return Outcome{Message: err.Error(), Err: err}
}

// checkCancel - 취소 요청 확인. 요청됐으면 해당 stage를 failed로 표시하고 CancelledError 반환
func (o *Orchestrator) checkCancel(token *Token, tracker *Tracker, stage string) error {
	if token == nil || !token.IsRequested() {
		return nil
	}
	cancelErr := &CancelledError{Stage: stage}
	tracker.SetStage(stage, tracker.Snapshot().Stages[stageIndex(stage)].Progress, "cancelled by user", cancelErr)
	log.Printf("🛑 Pipeline cancelled during %s stage", stage)
	return cancelErr
}

// runCompress - Stage 1: 모든 dish의 원본 이미지를 WebP로 변환
// dish 단위 bounded fan-out, 이미지 1장 완료마다 진행률 갱신, 첫 에러에서 중단
func (o *Orchestrator) runCompress(ctx context.Context, batch *Batch, token *Token, tracker *Tracker) error {
	if err := o.checkCancel(token, tracker, StageCompress); err != nil {
		return err
	}

	totalImages := 0
	for _, dish := range batch.Dishes {
		totalImages += len(dish.RawImages)
	}

	tracker.SetStage(StageCompress, 0, fmt.Sprintf("compressing %d images", totalImages), nil)
	log.Printf("📦 Compress stage started: %d images across %d dishes", totalImages, len(batch.Dishes))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		firstErr  error
		doneCount int
	)
	sem := make(chan struct{}, o.deps.Workers)

	for di, dish := range batch.Dishes {
		mu.Lock()
		aborted := firstErr != nil
		mu.Unlock()
		if aborted {
			break
		}
		// 취소 감지는 여기서, failed 마킹은 진행 중인 worker가 전부 끝난 뒤에
		if token != nil && token.IsRequested() {
			break
		}

		tracker.SetCurrentDish(di + 1)
		dish.Transcoded = make([][]byte, len(dish.RawImages))

		for ii, raw := range dish.RawImages {
			wg.Add(1)
			sem <- struct{}{}

			go func(dish *Dish, dishIdx, imgIdx int, raw []byte) {
				defer wg.Done()
				defer func() { <-sem }()

				mu.Lock()
				aborted := firstErr != nil
				mu.Unlock()
				if aborted {
					return
				}

				out, err := o.deps.Transcoder.Transcode(raw, o.deps.MaxImageWidth, o.deps.MaxImageHeight, o.deps.WebPQuality)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					if firstErr == nil {
						firstErr = fmt.Errorf("dish %q image %d: %w", dish.Name, imgIdx+1, err)
					}
					return
				}
				dish.Transcoded[imgIdx] = out
				doneCount++
				progress := doneCount * 100 / totalImages
				if progress >= 100 {
					progress = 99 // stage 종료는 아래에서 일괄 처리
				}
				tracker.SetStage(StageCompress, progress, fmt.Sprintf("compressed %d/%d images", doneCount, totalImages), nil)
			}(dish, di, ii, raw)
		}
	}
	wg.Wait()

	if firstErr != nil {
		stageErr := &StageError{Stage: StageCompress, Err: firstErr}
		tracker.SetStage(StageCompress, tracker.Snapshot().Stages[0].Progress, "compression failed", stageErr)
		log.Printf("❌ Compress stage failed: %v", firstErr)
		return stageErr
	}
	if err := o.checkCancel(token, tracker, StageCompress); err != nil {
		return err
	}

	tracker.SetStage(StageCompress, 100, fmt.Sprintf("compressed %d images", totalImages), nil)
	log.Printf("✅ Compress stage completed: %d images", totalImages)
	return nil
}

// runUpload - Stage 2: 공유 자산 먼저, 그 다음 dish별 이미지 업로드
// 참조 목록은 원본 순서를 보존함 (인덱스에 직접 기록)
func (o *Orchestrator) runUpload(ctx context.Context, batch *Batch, token *Token, tracker *Tracker) error {
	if err := o.checkCancel(token, tracker, StageUpload); err != nil {
		return err
	}

	totalFiles := 0
	for _, dish := range batch.Dishes {
		totalFiles += len(dish.Transcoded)
	}
	if batch.Aux != nil {
		totalFiles += len(batch.Aux.Files)
	}

	tracker.SetStage(StageUpload, 0, fmt.Sprintf("uploading %d files", totalFiles), nil)
	log.Printf("📤 Upload stage started: %d files", totalFiles)

	var mu sync.Mutex
	doneCount := 0
	bump := func() {
		mu.Lock()
		defer mu.Unlock()
		doneCount++
		progress := doneCount * 100 / totalFiles
		if progress >= 100 {
			progress = 99
		}
		tracker.SetStage(StageUpload, progress, fmt.Sprintf("uploaded %d/%d files", doneCount, totalFiles), nil)
	}

	// 공유 자산은 배치당 1회, dish 이미지보다 먼저 업로드됨
	if batch.Aux != nil && len(batch.Aux.Files) > 0 {
		batch.Aux.UploadedRefs = make([]string, len(batch.Aux.Files))
		for fi, file := range batch.Aux.Files {
			if err := o.checkCancel(token, tracker, StageUpload); err != nil {
				return err
			}
			key := o.deps.Namer.SharedAssetKey(batch.OwnerID, file.Name)
			contentType := http.DetectContentType(file.Data)
			if err := o.deps.Blobs.Upload(ctx, key, file.Data, contentType); err != nil {
				return o.uploadFailed(tracker, fmt.Errorf("shared asset %q: %w", file.Name, err))
			}
			ref, err := o.deps.Blobs.PublicRef(key)
			if err != nil {
				return o.uploadFailed(tracker, fmt.Errorf("shared asset %q: %w", file.Name, err))
			}
			batch.Aux.UploadedRefs[fi] = ref
			bump()
		}
	}

	var (
		wg       sync.WaitGroup
		firstErr error
	)
	sem := make(chan struct{}, o.deps.Workers)

	for di, dish := range batch.Dishes {
		mu.Lock()
		aborted := firstErr != nil
		mu.Unlock()
		if aborted {
			break
		}
		// 취소 감지는 여기서, failed 마킹은 진행 중인 worker가 전부 끝난 뒤에
		if token != nil && token.IsRequested() {
			break
		}

		tracker.SetCurrentDish(di + 1)
		dish.UploadedRefs = make([]string, len(dish.Transcoded))

		for ii, data := range dish.Transcoded {
			wg.Add(1)
			sem <- struct{}{}

			go func(dish *Dish, imgIdx int, data []byte) {
				defer wg.Done()
				defer func() { <-sem }()

				mu.Lock()
				aborted := firstErr != nil
				mu.Unlock()
				if aborted {
					return
				}

				key := o.deps.Namer.DishImageKey(batch.OwnerID, dish.Category)
				err := o.deps.Blobs.Upload(ctx, key, data, "image/webp")
				var ref string
				if err == nil {
					ref, err = o.deps.Blobs.PublicRef(key)
				}

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					if firstErr == nil {
						firstErr = fmt.Errorf("dish %q image %d: %w", dish.Name, imgIdx+1, err)
					}
					return
				}
				dish.UploadedRefs[imgIdx] = ref
				doneCount++
				progress := doneCount * 100 / totalFiles
				if progress >= 100 {
					progress = 99
				}
				tracker.SetStage(StageUpload, progress, fmt.Sprintf("uploaded %d/%d files", doneCount, totalFiles), nil)
			}(dish, ii, data)
		}
	}
	wg.Wait()

	if firstErr != nil {
		return o.uploadFailed(tracker, firstErr)
	}
	if err := o.checkCancel(token, tracker, StageUpload); err != nil {
		return err
	}

	tracker.SetStage(StageUpload, 100, fmt.Sprintf("uploaded %d files", totalFiles), nil)
	log.Printf("✅ Upload stage completed: %d files", totalFiles)
	return nil
}

func (o *Orchestrator) uploadFailed(tracker *Tracker, cause error) error {
	stageErr := &StageError{Stage: StageUpload, Err: cause}
	tracker.SetStage(StageUpload, tracker.Snapshot().Stages[1].Progress, "upload failed", stageErr)
	log.Printf("❌ Upload stage failed: %v", cause)
	return stageErr
}

// runPersist - Stage 3: dish 레코드 + 제출 레코드를 순서대로 저장
// 부분 실패 시 이미 저장된 레코드는 남음 (보상 삭제 없음)
func (o *Orchestrator) runPersist(ctx context.Context, batch *Batch, token *Token, tracker *Tracker) ([]*CreatedSubmission, error) {
	if err := o.checkCancel(token, tracker, StagePersist); err != nil {
		return nil, err
	}

	tracker.SetStage(StagePersist, 0, fmt.Sprintf("saving %d dishes", len(batch.Dishes)), nil)
	log.Printf("💾 Persist stage started: %d dishes", len(batch.Dishes))

	var auxRefs []string
	var auxNotes *string
	if batch.Aux != nil {
		auxRefs = batch.Aux.UploadedRefs
		if strings.TrimSpace(batch.Aux.Notes) != "" {
			notes := batch.Aux.Notes
			auxNotes = &notes
		}
	}

	created := make([]*CreatedSubmission, 0, len(batch.Dishes))

	for di, dish := range batch.Dishes {
		if err := o.checkCancel(token, tracker, StagePersist); err != nil {
			return nil, err
		}
		tracker.SetCurrentDish(di + 1)

		category := ParseCategory(dish.Category)

		dishFields := map[string]interface{}{
			"dish_name":  dish.Name,
			"image_refs": dish.UploadedRefs,
		}
		if dish.Description != "" {
			dishFields["description"] = dish.Description
		}
		if dish.Notes != "" {
			dishFields["notes"] = dish.Notes
		}
		if batch.OwnerID != nil && *batch.OwnerID != "" {
			dishFields["owner_id"] = *batch.OwnerID
		}

		dishID, err := o.deps.Records.InsertDish(ctx, category.Table(), dishFields)
		if err != nil {
			stageErr := &StageError{Stage: StagePersist, Err: fmt.Errorf("dish %q: %w", dish.Name, err)}
			tracker.SetStage(StagePersist, di*100/len(batch.Dishes), "save failed", stageErr)
			log.Printf("❌ Persist stage failed on dish %q: %v", dish.Name, err)
			return nil, stageErr
		}

		subFields := map[string]interface{}{
			"dish_id":        dishID,
			"category":       category.String(),
			"dish_name":      dish.Name,
			"status":         model.StatusPending,
			"image_refs":     dish.UploadedRefs,
			"submitter_name": batch.SubmitterName,
		}
		if batch.OwnerID != nil && *batch.OwnerID != "" {
			subFields["owner_id"] = *batch.OwnerID
		}
		if batch.Organization != nil && *batch.Organization != "" {
			subFields["organization"] = *batch.Organization
		}
		if len(auxRefs) > 0 {
			subFields["aux_refs"] = auxRefs
		}
		if auxNotes != nil {
			subFields["aux_notes"] = *auxNotes
		}

		submission, err := o.deps.Records.InsertSubmission(ctx, subFields)
		if err != nil {
			stageErr := &StageError{Stage: StagePersist, Err: fmt.Errorf("submission for dish %q: %w", dish.Name, err)}
			tracker.SetStage(StagePersist, di*100/len(batch.Dishes), "save failed", stageErr)
			log.Printf("❌ Persist stage failed on submission for %q: %v", dish.Name, err)
			return nil, stageErr
		}

		created = append(created, &CreatedSubmission{
			DishID:     dishID,
			Submission: submission,
			Dish:       dish,
		})

		// 쿼터 차감은 best-effort: 실패해도 제출은 유지됨
		if batch.OwnerID != nil && *batch.OwnerID != "" {
			if err := o.deps.Quota.Consume(ctx, *batch.OwnerID, submission.SubmissionID, dish.Name); err != nil {
				log.Printf("⚠️ Quota consume failed for %s (dish %q): %v", *batch.OwnerID, dish.Name, err)
			}
		}

		tracker.SetStage(StagePersist, (di+1)*100/len(batch.Dishes),
			fmt.Sprintf("saved %d/%d dishes", di+1, len(batch.Dishes)), nil)
	}

	log.Printf("✅ Persist stage completed: %d submissions", len(created))
	return created, nil
}

// runNotify - Stage 4: 제출별 알림 전송 (best-effort)
// 실패는 CreatedSubmission에 기록만 하고 stage는 항상 done으로 끝남
func (o *Orchestrator) runNotify(ctx context.Context, batch *Batch, created []*CreatedSubmission, tracker *Tracker) {
	tracker.SetStage(StageNotify, 0, fmt.Sprintf("notifying %d submissions", len(created)), nil)
	log.Printf("📨 Notify stage started: %d submissions", len(created))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		doneCount int
	)
	sem := make(chan struct{}, o.deps.Workers)

	for _, cs := range created {
		wg.Add(1)
		sem <- struct{}{}

		go func(cs *CreatedSubmission) {
			defer wg.Done()
			defer func() { <-sem }()

			payload := o.notifyPayload(batch, cs)
			err := o.deps.Notifier.Send(ctx, payload)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				cs.NotifyDetail = err.Error()
				log.Printf("⚠️ Notify failed for dish %q: %v", cs.Dish.Name, err)
			}
			doneCount++
			progress := doneCount * 100 / len(created)
			if progress >= 100 {
				progress = 99
			}
			tracker.SetStage(StageNotify, progress, fmt.Sprintf("notified %d/%d", doneCount, len(created)), nil)
		}(cs)
	}
	wg.Wait()

	tracker.SetStage(StageNotify, 100, fmt.Sprintf("notified %d submissions", len(created)), nil)
	log.Printf("✅ Notify stage completed")
}

// notifyPayload - 제출 1건의 알림 payload 구성
// main/side 카테고리는 notes를 쉼표로 쪼갠 재료 목록을 포함함
func (o *Orchestrator) notifyPayload(batch *Batch, cs *CreatedSubmission) map[string]interface{} {
	category := ParseCategory(cs.Dish.Category)

	payload := map[string]interface{}{
		"timestamp":     time.Now().Format(time.RFC3339),
		"source":        SourceTag,
		"submissionId":  cs.Submission.SubmissionID,
		"dishId":        cs.DishID,
		"dishName":      cs.Dish.Name,
		"category":      category.String(),
		"description":   cs.Dish.Description,
		"notes":         cs.Dish.Notes,
		"submitterName": batch.SubmitterName,
		"imageRefs":     cs.Dish.UploadedRefs,
		"hasOwner":      batch.OwnerID != nil && *batch.OwnerID != "",
	}
	if batch.OwnerID != nil && *batch.OwnerID != "" {
		payload["ownerId"] = *batch.OwnerID
	}
	if batch.Aux != nil && len(batch.Aux.UploadedRefs) > 0 {
		payload["auxRefs"] = batch.Aux.UploadedRefs
	}

	if category.HasIngredients() {
		payload["ingredients"] = splitIngredients(cs.Dish.Notes)
	} else {
		payload["categoryText"] = category.String()
	}

	return payload
}

// splitIngredients - notes를 쉼표로 분리해 재료 목록 생성 (빈 항목 제거)
func splitIngredients(notes string) []string {
	parts := strings.Split(notes, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
