package submit

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"bapsang-intake-server/modules/common/config"
	"bapsang-intake-server/modules/common/database"
	"bapsang-intake-server/modules/common/model"
	redisutil "bapsang-intake-server/modules/common/redis"
	"bapsang-intake-server/modules/pipeline"
)

// Handler - 제출 API 핸들러 (접수/진행 상황/취소)
type Handler struct {
	rdb  *redis.Client
	db   *database.Client
	gate *pipeline.Gate
}

// NewHandler - 제출 핸들러 생성
func NewHandler(rdb *redis.Client, db *database.Client) *Handler {
	return &Handler{
		rdb:  rdb,
		db:   db,
		gate: pipeline.NewGate(config.GetConfig().MinImagesPerDish),
	}
}

// HandleSubmit - POST /api/submissions
// 검증 통과한 배치를 Job으로 등록하고 Queue에 추가함 (처리는 worker가 함)
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, SubmitResponse{Error: "failed to read request body"})
		return
	}

	var req SubmitRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, SubmitResponse{Error: "invalid JSON body"})
		return
	}

	// 접수 시점에 검증 - worker까지 가기 전에 필드 에러를 바로 돌려줌
	batch, err := req.ToBatch()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, SubmitResponse{Error: err.Error()})
		return
	}
	if fieldErr := h.gate.Validate(batch); fieldErr != nil {
		log.Printf("⚠️ Submission rejected: %s", fieldErr.Error())
		writeJSON(w, http.StatusBadRequest, SubmitResponse{
			Error: fieldErr.Message,
			Field: fieldErr.Field,
		})
		return
	}

	jobID := uuid.New().String()
	log.Printf("📥 Submission accepted: job=%s dishes=%d submitter=%s",
		jobID, len(req.Dishes), req.SubmitterName)

	if err := h.db.CreateJob(r.Context(), jobID, req.OwnerID, len(req.Dishes)); err != nil {
		log.Printf("❌ Failed to create job record: %v", err)
		writeJSON(w, http.StatusInternalServerError, SubmitResponse{Error: "failed to create job"})
		return
	}

	if err := redisutil.StashPayload(h.rdb, jobID, body); err != nil {
		log.Printf("❌ Failed to stash payload: %v", err)
		writeJSON(w, http.StatusInternalServerError, SubmitResponse{Error: "failed to queue submission"})
		return
	}

	position, err := redisutil.Enqueue(h.rdb, jobID)
	if err != nil {
		log.Printf("❌ Failed to enqueue job: %v", err)
		redisutil.DeletePayload(h.rdb, jobID)
		writeJSON(w, http.StatusInternalServerError, SubmitResponse{Error: "failed to queue submission"})
		return
	}

	log.Printf("🚀 Job queued: %s (position: %d)", jobID, position)
	writeJSON(w, http.StatusAccepted, SubmitResponse{
		Success:       true,
		JobID:         jobID,
		QueuePosition: position,
	})
}

// HandleProgress - GET /api/submissions/{jobId}/progress
// worker가 Redis에 미러링한 snapshot을 그대로 반환함
func (h *Handler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	snapshot, err := redisutil.FetchProgress(h.rdb, jobID)
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(snapshot)
		return
	}

	// snapshot이 아직 없으면 (대기 중이거나 오래된 Job) DB 상태로 응답
	job, dbErr := h.db.FetchJob(jobID)
	if dbErr != nil {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"error": "job not found",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job_id":           job.JobID,
		"job_status":       job.JobStatus,
		"total_dishes":     job.TotalDishes,
		"completed_dishes": job.CompletedDishes,
	})
}

// HandleCancel - POST /api/submissions/{jobId}/cancel
// Redis에 취소 플래그를 세움. worker가 다음 체크포인트에서 중단함
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]
	log.Printf("🛑 Cancel requested for job: %s", jobID)

	job, err := h.db.FetchJob(jobID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, CancelResponse{
			JobID:   jobID,
			Message: "job not found",
		})
		return
	}

	switch job.JobStatus {
	case model.StatusCompleted, model.StatusFailed, model.StatusUserCancelled:
		writeJSON(w, http.StatusConflict, CancelResponse{
			JobID:   jobID,
			Message: "job already finished: " + job.JobStatus,
		})
		return
	}

	if err := redisutil.SetJobCancelled(h.rdb, jobID); err != nil {
		log.Printf("❌ Failed to set cancel flag: %v", err)
		writeJSON(w, http.StatusInternalServerError, CancelResponse{
			JobID:   jobID,
			Message: "failed to request cancellation",
		})
		return
	}

	writeJSON(w, http.StatusOK, CancelResponse{
		Success: true,
		JobID:   jobID,
		Message: "cancellation requested",
	})
}

// writeJSON - JSON 응답 공통 처리
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil && !errors.Is(err, http.ErrBodyNotAllowed) {
		log.Printf("⚠️ Failed to write response: %v", err)
	}
}
