package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-chat/internal/config"
	"storefront-chat/internal/gateway"
	"storefront-chat/internal/llm"
	"storefront-chat/internal/telegram"
)

type stubClient struct {
	mu    sync.Mutex
	calls [][]llm.Message
}

func (c *stubClient) Generate(_ context.Context, msgs []llm.Message, _ llm.Params) (llm.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, msgs)
	return llm.Response{Content: "Te recomiendo el vestido lino.", Model: "stub", TotalTokens: 12}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		HTTPAddr:             "127.0.0.1:0",
		APIPrefix:            "/api",
		FrontendOrigins:      []string{"http://localhost:5173"},
		LLMProvider:          config.ProviderOpenAI,
		OpenAIAPIKey:         "test",
		UpstreamTimeout:      time.Second,
		CatalogPath:          filepath.Join(dir, "missing.json"),
		StoreName:            "Moda Lima",
		FallbackContact:      "WhatsApp",
		RateLimitWindow:      time.Minute,
		RateLimitMax:         3,
		HistoryMaxTurns:      20,
		SessionSweepInterval: time.Minute,
		TranscriptPath:       filepath.Join(dir, "logs", "chat.jsonl"),
		DailyReportCron:      "0 21 * * *",
	}
}

func post(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestNewWithClient_ServesChat(t *testing.T) {
	cfg := testConfig(t)
	client := &stubClient{}
	log, hook := test.NewNullLogger()

	a, err := NewWithClient(cfg, client, log)
	require.NoError(t, err)
	h := a.Handler()

	rr := post(h, "/api/chat/message", `{"message": "hola", "sessionId": "s1"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, client.calls, "greeting is answered from canned replies")

	rr = post(h, "/api/chat/message", `{"message": "busco algo para una boda", "sessionId": "s1"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Te recomiendo el vestido lino.", body["response"])

	require.Len(t, client.calls, 1)
	msgs := client.calls[0]
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "Moda Lima")
	assert.Len(t, msgs, 4, "system + cached exchange + new user turn")

	found := false
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && strings.Contains(e.Message, "catalog unavailable") {
			found = true
		}
	}
	assert.True(t, found, "missing catalog should be logged")

	data, err := os.ReadFile(cfg.TranscriptPath)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}

func TestNewWithClient_RateLimitsPerClient(t *testing.T) {
	cfg := testConfig(t)
	a, err := NewWithClient(cfg, &stubClient{}, nil)
	require.NoError(t, err)
	h := a.Handler()

	for i := 0; i < cfg.RateLimitMax; i++ {
		rr := post(h, "/api/chat/message", `{"message": "hola"}`)
		require.Equal(t, http.StatusOK, rr.Code)
	}
	rr := post(h, "/api/chat/message", `{"message": "hola"}`)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))
}

func TestNewWithClient_CustomContent(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()

	cfg.CannedRepliesPath = filepath.Join(dir, "replies.json")
	require.NoError(t, os.WriteFile(cfg.CannedRepliesPath, []byte(`[{"phrase":"promo","reply":"2x1 en polos"}]`), 0o644))
	cfg.SystemPromptPath = filepath.Join(dir, "prompt.tmpl")
	require.NoError(t, os.WriteFile(cfg.SystemPromptPath, []byte("Eres el asistente de {{.Store}}."), 0o644))
	cfg.CatalogPath = filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(cfg.CatalogPath, []byte(`[{"id":"1","name":"Polo","price":50}]`), 0o644))

	client := &stubClient{}
	a, err := NewWithClient(cfg, client, nil)
	require.NoError(t, err)
	h := a.Handler()

	rr := post(h, "/api/chat/message", `{"message": "¿hay promo?"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "2x1 en polos")

	rr = post(h, "/api/chat/message", `{"message": "hola"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, client.calls, 1, "default greetings are replaced by the configured file")
	assert.Equal(t, "Eres el asistente de Moda Lima.", client.calls[0][0].Content)
}

func TestNewWithClient_BadInputs(t *testing.T) {
	cfg := testConfig(t)
	cfg.CannedRepliesPath = filepath.Join(t.TempDir(), "nope.json")
	_, err := NewWithClient(cfg, &stubClient{}, nil)
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.DailyReportCron = "every full moon"
	_, err = NewWithClient(cfg, &stubClient{}, nil)
	assert.Error(t, err)
}

func TestDailyReport(t *testing.T) {
	cfg := testConfig(t)
	log, hook := test.NewNullLogger()
	a, err := NewWithClient(cfg, &stubClient{}, log)
	require.NoError(t, err)

	post(a.Handler(), "/api/chat/message", `{"message": "hola", "sessionId": "s1"}`)
	require.NoError(t, a.dailyReport(context.Background()))

	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Contains(t, last.Message, "daily report")
	assert.Equal(t, 1, last.Data["messages"])
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	a, err := NewWithClient(cfg, &stubClient{}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNew_TelegramFailureReleasesTranscript(t *testing.T) {
	cfg := testConfig(t)
	cfg.TelegramBotToken = "123:bad"
	log, hook := test.NewNullLogger()

	var chat telegram.Chat
	orig := newTelegramBot
	defer func() { newTelegramBot = orig }()
	newTelegramBot = func(_ string, c telegram.Chat, _ telegram.Limiter, _ logrus.FieldLogger) (*telegram.Bot, error) {
		chat = c
		return nil, errors.New("unauthorized")
	}

	a, err := New(cfg, log)
	require.Error(t, err)
	assert.Nil(t, a)
	require.NotNil(t, chat)

	// the gateway built for the bot can no longer write to the closed transcript
	_, err = chat.Reply(context.Background(), gateway.Request{SessionID: "s1", Message: "hola"})
	require.NoError(t, err)
	found := false
	for _, e := range hook.AllEntries() {
		if e.Message == "failed to record exchange" && errors.Is(e.Data[logrus.ErrorKey].(error), os.ErrClosed) {
			found = true
		}
	}
	assert.True(t, found, "transcript should be closed after a failed start")
}

func TestShutdownOutlastsUpstreamCalls(t *testing.T) {
	cfg := testConfig(t)
	cfg.UpstreamTimeout = 30 * time.Second
	a, err := NewWithClient(cfg, &stubClient{}, nil)
	require.NoError(t, err)
	defer a.Close()

	assert.Greater(t, a.shutdownTimeout(), cfg.UpstreamTimeout)
}
