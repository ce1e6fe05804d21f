package submit

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	redisutil "bapsang-intake-server/modules/common/redis"
	"bapsang-intake-server/modules/pipeline"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS는 미들웨어에서 처리됨
	},
}

const (
	wsPushInterval = 1 * time.Second
	wsMaxLifetime  = 15 * time.Minute
)

// HandleProgressWS - GET /ws/submissions/{jobId}/progress
// Redis에 미러링된 진행 snapshot을 주기적으로 push함. 종료 상태 도달 시 닫음
func (h *Handler) HandleProgressWS(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("❌ WebSocket upgrade failed for %s: %v", jobID, err)
		return
	}
	defer conn.Close()

	log.Printf("🔌 Progress stream opened: %s", jobID)

	// 클라이언트 종료 감지용 read pump
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPushInterval)
	defer ticker.Stop()
	deadline := time.After(wsMaxLifetime)

	var lastSent []byte

	for {
		select {
		case <-clientGone:
			log.Printf("🔌 Progress stream closed by client: %s", jobID)
			return
		case <-deadline:
			log.Printf("⚠️ Progress stream timed out: %s", jobID)
			return
		case <-ticker.C:
			data, err := redisutil.FetchProgress(h.rdb, jobID)
			if err != nil {
				continue // snapshot이 아직 없음 (Queue 대기 중)
			}
			if string(data) == string(lastSent) {
				continue
			}

			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("🔌 Progress stream write failed: %s", jobID)
				return
			}
			lastSent = data

			if isTerminalSnapshot(data) {
				log.Printf("✅ Progress stream finished: %s", jobID)
				return
			}
		}
	}
}

// isTerminalSnapshot - snapshot이 종료 상태(전부 done 또는 failed 존재)인지 확인
func isTerminalSnapshot(data []byte) bool {
	var snap pipeline.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return false
	}

	allDone := len(snap.Stages) > 0
	for _, st := range snap.Stages {
		if st.Status == pipeline.StatusFailed {
			return true
		}
		if st.Status != pipeline.StatusDone {
			allDone = false
		}
	}
	return allDone
}
