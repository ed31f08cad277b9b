package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"storefront-chat/internal/analytics"
	"storefront-chat/internal/catalog"
	"storefront-chat/internal/gateway"
	"storefront-chat/internal/logging"
	"storefront-chat/internal/prompt"
)

const maxBodyBytes = 1 << 20

type messageRequest struct {
	Message   json.RawMessage `json:"message"`
	Context   *chatContext    `json:"context"`
	SessionID string          `json:"sessionId"`
}

type chatContext struct {
	CurrentPage string            `json:"currentPage"`
	CartItems   []prompt.CartItem `json:"cartItems"`
	Products    []catalog.Product `json:"products"`
}

type messageResponse struct {
	Success   bool      `json:"success"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

type resetRequest struct {
	SessionID string `json:"sessionId"`
}

type resetResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context(), s.log)

	var body messageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		renderBadRequest(log, w, errors.Wrap(err, "decode chat message"), "El cuerpo de la solicitud debe ser JSON válido.")
		return
	}

	var message string
	if len(body.Message) == 0 || json.Unmarshal(body.Message, &message) != nil || strings.TrimSpace(message) == "" {
		renderBadRequest(log, w, errors.New("message missing or not a string"), "El campo message es obligatorio y debe ser texto.")
		return
	}

	req := gateway.Request{SessionID: body.SessionID, Message: message}
	if c := body.Context; c != nil {
		req.Page = prompt.PageContext{CurrentPage: c.CurrentPage, CartItems: c.CartItems}
		req.Products = c.Products
	}

	reply, err := s.chat.Reply(r.Context(), req)
	if err != nil {
		renderHTTPError(log, w, errors.Wrap(err, "could not answer chat message"), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Success: true, Response: reply.Text, Timestamp: reply.Timestamp})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context(), s.log)

	var body resetRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body)
	if err != nil && !errors.Is(err, io.EOF) {
		renderBadRequest(log, w, errors.Wrap(err, "decode reset request"), "El cuerpo de la solicitud debe ser JSON válido.")
		return
	}

	s.chat.Reset(body.SessionID)
	log.WithField("session", gateway.SessionOrDefault(body.SessionID)).Info("conversation reset")
	writeJSON(w, http.StatusOK, resetResponse{Success: true, Message: "Conversación reiniciada"})
}

func (s *Server) handleDailyStats(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context(), s.log)

	if s.recorder == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Not found", Message: "transcript recording is disabled"})
		return
	}

	day := s.now().UTC()
	if q := strings.TrimSpace(r.URL.Query().Get("date")); q != "" {
		parsed, err := time.Parse("2006-01-02", q)
		if err != nil {
			renderBadRequest(log, w, errors.Wrapf(err, "parse date %q", q), "date must be formatted as YYYY-MM-DD")
			return
		}
		day = parsed
	}

	events, err := s.recorder.LoadInteractions()
	if err != nil {
		renderHTTPError(log, w, errors.Wrap(err, "could not load transcript"), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, analytics.AnalyzeDailyLogs(events, day))
}

func renderBadRequest(log logrus.FieldLogger, w http.ResponseWriter, err error, msg string) {
	log.WithField("error", err).Info("bad request")
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request", Message: msg})
}

// renderHTTPError logs the cause and answers with a generic envelope; the
// cause never reaches the client.
func renderHTTPError(log logrus.FieldLogger, w http.ResponseWriter, err error, code int) {
	log.WithField("error", err).Error("request error")
	writeJSON(w, code, errorResponse{
		Error:   http.StatusText(code),
		Message: "Ocurrió un error inesperado. Por favor intenta nuevamente.",
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
