package main

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"bapsang-intake-server/modules/common/config"
	"bapsang-intake-server/modules/common/database"
	redisutil "bapsang-intake-server/modules/common/redis"
	"bapsang-intake-server/modules/submit"
)

// CORS 헤더 추가
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// 헬스 체크 엔드포인트
func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "bapsang-intake",
	})
}

func main() {
	// 환경변수 로드
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	// Redis 연결
	rdb := redisutil.Connect(cfg)
	if rdb == nil {
		log.Fatal("❌ Failed to connect to Redis")
	}

	// Supabase 클라이언트
	db := database.NewClient()
	if db == nil {
		log.Fatal("❌ Failed to create database client")
	}

	// 제출 Worker 시작 (백그라운드)
	submit.StartWorker(rdb, db)

	// 라우터 설정
	r := mux.NewRouter()
	r.Use(enableCORS)

	handler := submit.NewHandler(rdb, db)

	r.HandleFunc("/", healthCheck).Methods("GET")
	r.HandleFunc("/health", healthCheck).Methods("GET")
	r.HandleFunc("/api/submissions", handler.HandleSubmit).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/submissions/{jobId}/progress", handler.HandleProgress).Methods("GET")
	r.HandleFunc("/api/submissions/{jobId}/cancel", handler.HandleCancel).Methods("POST", "OPTIONS")
	r.HandleFunc("/ws/submissions/{jobId}/progress", handler.HandleProgressWS)

	log.Printf("🚀 Bapsang Intake Server starting on port %s", cfg.Port)
	log.Printf("📥 Submit endpoint: http://localhost:%s/api/submissions", cfg.Port)
	log.Printf("📡 Progress stream: ws://localhost:%s/ws/submissions/{jobId}/progress", cfg.Port)
	log.Printf("❤️  Health check: http://localhost:%s/health", cfg.Port)

	// 서버 시작
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
