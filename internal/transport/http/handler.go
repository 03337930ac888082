package http

import (
	"bufio"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"food-quiz-service/internal/app"
	"food-quiz-service/internal/domain"
	"go.uber.org/zap"
)

const maxBodyBytes = 64 << 10

// Handler serves the quiz REST API.
type Handler struct {
	service *app.QuizService
	log     *zap.Logger
}

func NewHandler(service *app.QuizService, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

type createQuizRequest struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

type quizResponse struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

type submitRequest struct {
	Nickname string          `json:"nickname"`
	Answers  []domain.Answer `json:"answers"`
}

type submitResponse struct {
	SubmissionID string `json:"submissionId"`
	Score        int    `json:"score"`
}

type resultResponse struct {
	SubmissionID string                  `json:"submissionId"`
	Nickname     string                  `json:"nickname"`
	Score        int                     `json:"score"`
	Tier         domain.Tier             `json:"tier"`
	Comparison   []domain.ItemComparison `json:"comparison"`
}

type leaderboardResponse struct {
	Rows []domain.LeaderboardEntry `json:"rows"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Routes registers the API on mux.
func (h *Handler) Routes(mux *http.ServeMux, ws *WSHandler) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /api/quizzes", h.CreateQuiz)
	mux.HandleFunc("GET /api/quizzes/{slug}", h.GetQuiz)
	mux.HandleFunc("DELETE /api/quizzes/{slug}", h.DeleteQuiz)
	mux.HandleFunc("POST /api/quizzes/{slug}/submit", h.Submit)
	mux.HandleFunc("GET /api/quizzes/{slug}/submissions/{id}", h.GetResult)
	mux.HandleFunc("GET /api/quizzes/{slug}/leaderboard", h.Leaderboard)
	if ws != nil {
		mux.HandleFunc("GET /api/quizzes/{slug}/leaderboard/ws", ws.ServeWS)
	}
}

// CreateQuiz handles POST /api/quizzes.
func (h *Handler) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	var req createQuizRequest
	if !h.decode(w, r, &req) {
		return
	}
	created, err := h.service.CreateQuiz(r.Context(), req.Title, req.Items)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GetQuiz handles GET /api/quizzes/{slug}. Items come back in true rank order.
func (h *Handler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.service.GetQuiz(r.Context(), r.PathValue("slug"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quizResponse{Title: quiz.Title, Items: quiz.Items})
}

// DeleteQuiz handles DELETE /api/quizzes/{slug} with the X-Edit-Token header.
func (h *Handler) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Edit-Token")
	if token == "" {
		h.fail(w, r, domain.ErrInvalidEditToken)
		return
	}
	if err := h.service.DeleteQuiz(r.Context(), r.PathValue("slug"), token); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Submit handles POST /api/quizzes/{slug}/submit.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !h.decode(w, r, &req) {
		return
	}
	sub, err := h.service.SubmitAnswer(r.Context(), r.PathValue("slug"), req.Nickname, req.Answers)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, submitResponse{SubmissionID: sub.ID, Score: sub.Score})
}

// GetResult handles GET /api/quizzes/{slug}/submissions/{id}.
func (h *Handler) GetResult(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.GetResult(r.Context(), r.PathValue("slug"), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resultResponse{
		SubmissionID: result.Submission.ID,
		Nickname:     result.Submission.Nickname,
		Score:        result.Submission.Score,
		Tier:         result.Tier,
		Comparison:   result.Comparison,
	})
}

// Leaderboard handles GET /api/quizzes/{slug}/leaderboard.
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := h.service.Leaderboard(r.Context(), r.PathValue("slug"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{Rows: lb.Entries})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrQuizNotFound), errors.Is(err, domain.ErrSubmissionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidEditToken):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets the websocket upgrader take over the connection through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// LogRequests logs method, path, status and duration for every request.
func LogRequests(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
