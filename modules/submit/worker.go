package submit

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"bapsang-intake-server/modules/common/config"
	"bapsang-intake-server/modules/common/database"
	"bapsang-intake-server/modules/common/model"
	"bapsang-intake-server/modules/common/notify"
	"bapsang-intake-server/modules/common/quota"
	redisutil "bapsang-intake-server/modules/common/redis"
	"bapsang-intake-server/modules/common/storage"
	"bapsang-intake-server/modules/common/transcode"
	"bapsang-intake-server/modules/pipeline"
)

// cancelPollInterval - worker가 취소 플래그를 확인하는 주기
const cancelPollInterval = 1 * time.Second

// Worker - Queue에서 제출 Job을 꺼내 파이프라인을 실행함
type Worker struct {
	rdb  *redis.Client
	db   *database.Client
	orch *pipeline.Orchestrator
}

// StartWorker - 제출 worker 시작 (별도 goroutine에서 Queue 소비)
func StartWorker(rdb *redis.Client, db *database.Client) {
	cfg := config.GetConfig()

	worker := &Worker{
		rdb: rdb,
		db:  db,
		orch: pipeline.NewOrchestrator(pipeline.Deps{
			Transcoder:     transcode.NewWebPTranscoder(),
			Blobs:          storage.NewClient(),
			Records:        db,
			Quota:          quota.NewClient(),
			Notifier:       notify.NewWebhookNotifier(),
			MinImages:      cfg.MinImagesPerDish,
			MaxImageWidth:  cfg.MaxImageWidth,
			MaxImageHeight: cfg.MaxImageHeight,
			WebPQuality:    cfg.WebPQuality,
			Workers:        cfg.PipelineWorkers,
		}),
	}

	log.Printf("🔄 Submission worker started (queue: %s)", redisutil.QueueKey)
	go worker.loop()
}

// loop - BRPOP으로 Queue 대기, Job 1건씩 순서대로 처리
func (w *Worker) loop() {
	ctx := context.Background()

	for {
		result, err := w.rdb.BRPop(ctx, 0, redisutil.QueueKey).Result()
		if err != nil {
			log.Printf("❌ Queue pop failed: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}
		if len(result) < 2 {
			continue
		}

		jobID := result[1]
		log.Printf("📤 Processing job: %s", jobID)
		w.process(ctx, jobID)
	}
}

// process - Job 1건 실행: payload 복원 → 파이프라인 실행 → 상태 기록
func (w *Worker) process(ctx context.Context, jobID string) {
	defer redisutil.DeletePayload(w.rdb, jobID)

	// 처리 시작 전에 이미 취소된 Job은 건너뜀
	if redisutil.IsJobCancelled(w.rdb, jobID) {
		log.Printf("🛑 Job %s cancelled before processing", jobID)
		w.db.UpdateJobStatus(ctx, jobID, model.StatusUserCancelled)
		return
	}

	payload, err := redisutil.FetchPayload(w.rdb, jobID)
	if err != nil {
		log.Printf("❌ Failed to fetch payload for %s: %v", jobID, err)
		w.fail(ctx, jobID, "submission payload expired or missing")
		return
	}

	var req SubmitRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		log.Printf("❌ Failed to decode payload for %s: %v", jobID, err)
		w.fail(ctx, jobID, "invalid submission payload")
		return
	}

	batch, err := req.ToBatch()
	if err != nil {
		log.Printf("❌ Failed to build batch for %s: %v", jobID, err)
		w.fail(ctx, jobID, err.Error())
		return
	}

	w.db.UpdateJobStatus(ctx, jobID, model.StatusProcessing)

	// 취소 플래그 폴링 - 플래그가 서면 파이프라인 토큰으로 전달됨
	token := pipeline.NewToken()
	pollDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cancelPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-pollDone:
				return
			case <-ticker.C:
				if redisutil.IsJobCancelled(w.rdb, jobID) {
					log.Printf("🛑 Cancel flag detected for job %s", jobID)
					token.Request()
					return
				}
			}
		}
	}()

	outcome := w.orch.Run(ctx, batch, token, func(snap pipeline.Snapshot) {
		data, err := json.Marshal(snap)
		if err != nil {
			return
		}
		if err := redisutil.MirrorProgress(w.rdb, jobID, data); err != nil {
			log.Printf("⚠️ Failed to mirror progress for %s: %v", jobID, err)
		}
	})
	close(pollDone)

	w.db.UpdateJobProgress(ctx, jobID, len(outcome.Created))

	switch {
	case outcome.Success:
		log.Printf("✅ Job %s completed: %s", jobID, outcome.Message)
		w.db.UpdateJobStatus(ctx, jobID, model.StatusCompleted)
	case isCancelled(outcome.Err):
		log.Printf("🛑 Job %s cancelled: %s", jobID, outcome.Message)
		w.db.UpdateJobStatus(ctx, jobID, model.StatusUserCancelled)
	default:
		log.Printf("❌ Job %s failed: %s", jobID, outcome.Message)
		w.fail(ctx, jobID, outcome.Message)
	}
}

// fail - 실패 상태와 에러 메시지 기록
func (w *Worker) fail(ctx context.Context, jobID string, message string) {
	if err := w.db.SetJobError(ctx, jobID, message); err != nil {
		log.Printf("⚠️ Failed to record error for %s: %v", jobID, err)
	}
	w.db.UpdateJobStatus(ctx, jobID, model.StatusFailed)
}

// isCancelled - 파이프라인 종료가 사용자 취소인지 확인
func isCancelled(err error) bool {
	var cancelErr *pipeline.CancelledError
	return errors.As(err, &cancelErr)
}
