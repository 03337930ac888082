package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"food-quiz-service/internal/app"
	"food-quiz-service/internal/domain"
	"food-quiz-service/internal/infra/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var foods = []string{"sushi", "ramen", "tteokbokki", "samgyeopsal", "pizza", "chicken", "pasta", "kimchi stew", "burger", "naengmyeon"}

func TestQuizAPIFlow(t *testing.T) {
	server := newTestServer(t)

	var created domain.CreatedQuiz
	res := doJSON(t, server, http.MethodPost, "/api/quizzes", map[string]any{"title": "  My top 10 ", "items": foods}, &created)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	require.NotEmpty(t, created.Slug)
	require.NotEmpty(t, created.EditToken)

	var quiz quizResponse
	res = doJSON(t, server, http.MethodGet, "/api/quizzes/"+created.Slug, nil, &quiz)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "My top 10", quiz.Title)
	assert.Equal(t, foods, quiz.Items)

	swapped := answersFor(foods)
	swapped[0].Rank, swapped[1].Rank = 2, 1

	var submitted submitResponse
	res = doJSON(t, server, http.MethodPost, "/api/quizzes/"+created.Slug+"/submit",
		map[string]any{"nickname": "alice", "answers": swapped}, &submitted)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, 96, submitted.Score)
	assert.NotEmpty(t, submitted.SubmissionID)

	res = doJSON(t, server, http.MethodPost, "/api/quizzes/"+created.Slug+"/submit",
		map[string]any{"nickname": "bob", "answers": answersFor(foods)}, &submitted)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, 100, submitted.Score)

	var result resultResponse
	res = doJSON(t, server, http.MethodGet, "/api/quizzes/"+created.Slug+"/submissions/"+submitted.SubmissionID, nil, &result)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "bob", result.Nickname)
	assert.Equal(t, domain.TierSoulmate, result.Tier)
	assert.Len(t, result.Comparison, 10)

	var lb struct {
		Rows []struct {
			Rank     int    `json:"rank"`
			Nickname string `json:"nickname"`
			Score    int    `json:"score"`
		} `json:"rows"`
	}
	res = doJSON(t, server, http.MethodGet, "/api/quizzes/"+created.Slug+"/leaderboard", nil, &lb)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Len(t, lb.Rows, 2)
	assert.Equal(t, "bob", lb.Rows[0].Nickname)
	assert.Equal(t, 1, lb.Rows[0].Rank)
	assert.Equal(t, "alice", lb.Rows[1].Nickname)
	assert.Equal(t, 96, lb.Rows[1].Score)
}

func TestQuizAPIErrors(t *testing.T) {
	server := newTestServer(t)

	var errBody errorResponse
	res := doJSON(t, server, http.MethodPost, "/api/quizzes", map[string]any{"title": "short", "items": foods[:9]}, &errBody)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, errBody.Error, "expected 10 items")

	res = doJSON(t, server, http.MethodGet, "/api/quizzes/missing", nil, &errBody)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	req, _ := http.NewRequest(http.MethodPost, server.URL+"/api/quizzes", bytes.NewBufferString("{not json"))
	raw, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)

	var created domain.CreatedQuiz
	doJSON(t, server, http.MethodPost, "/api/quizzes", map[string]any{"title": "t", "items": foods}, &created)

	res = doJSON(t, server, http.MethodPost, "/api/quizzes/"+created.Slug+"/submit",
		map[string]any{"nickname": "eve", "answers": answersFor(foods[:9])}, &errBody)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = doJSON(t, server, http.MethodGet, "/api/quizzes/"+created.Slug+"/submissions/nope", nil, &errBody)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestDeleteQuizRequiresEditToken(t *testing.T) {
	server := newTestServer(t)

	var created domain.CreatedQuiz
	doJSON(t, server, http.MethodPost, "/api/quizzes", map[string]any{"title": "t", "items": foods}, &created)

	del := func(token string) int {
		req, _ := http.NewRequest(http.MethodDelete, server.URL+"/api/quizzes/"+created.Slug, nil)
		if token != "" {
			req.Header.Set("X-Edit-Token", token)
		}
		res, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		res.Body.Close()
		return res.StatusCode
	}

	assert.Equal(t, http.StatusForbidden, del(""))
	assert.Equal(t, http.StatusForbidden, del("wrong"))
	assert.Equal(t, http.StatusNoContent, del(created.EditToken))
	assert.Equal(t, http.StatusNotFound, del(created.EditToken))
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.NewStore()
	service := app.NewQuizService(store, store, memory.NewFeedStore(), app.WithTokenCost(bcrypt.MinCost))
	log := zap.NewNop()

	mux := http.NewServeMux()
	NewHandler(service, log).Routes(mux, NewWSHandler(service, log))
	server := httptest.NewServer(LogRequests(log, mux))
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, server *httptest.Server, method, path string, body, out any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res
}

func answersFor(items []string) []domain.Answer {
	answers := make([]domain.Answer, len(items))
	for i, item := range items {
		answers[i] = domain.Answer{Name: item, Rank: i + 1}
	}
	return answers
}
