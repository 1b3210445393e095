// Package api exposes HTTP handlers for the carbon logging service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"example.com/carbonlog/internal/auth"
	"example.com/carbonlog/internal/domain"
	"example.com/carbonlog/internal/extract"
)

// maxAudioBytes caps uploaded audio blobs.
const maxAudioBytes = 16 << 20

// Transcriber converts audio bytes into text.
type Transcriber interface {
	Recognize(ctx context.Context, audio []byte, contentType string) (string, error)
}

// Handler coordinates HTTP requests with the extraction pipeline and stores.
type Handler struct {
	pipeline     *extract.Orchestrator
	history      domain.HistoryStore
	catalog      domain.CatalogRepository
	users        domain.UserRepository
	transcriber  Transcriber
	authConfig   auth.Config
	historyLimit int
}

// NewHandler builds a Handler. The transcriber may be nil when no STT service
// is configured; audio endpoints then report an infrastructure error.
func NewHandler(pipeline *extract.Orchestrator, history domain.HistoryStore, catalog domain.CatalogRepository, users domain.UserRepository, transcriber Transcriber, authConfig auth.Config, historyLimit int) *Handler {
	if historyLimit <= 0 {
		historyLimit = 100
	}
	return &Handler{
		pipeline:     pipeline,
		history:      history,
		catalog:      catalog,
		users:        users,
		transcriber:  transcriber,
		authConfig:   authConfig,
		historyLimit: historyLimit,
	}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/auth/register", h.register)
	mux.HandleFunc("/v1/auth/login", h.login)
	mux.HandleFunc("/v1/logs", h.logs)
	mux.HandleFunc("/v1/logs/audio", h.logAudio)
	mux.HandleFunc("/v1/transcribe", h.transcribeOnly)
	mux.HandleFunc("/v1/factors", h.factors)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// CredentialsRequest is the payload for register and login.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse is returned on successful register or login.
type AuthResponse struct {
	Status   string `json:"status"`
	Username string `json:"username"`
	Token    string `json:"token"`
	Message  string `json:"message,omitempty"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMessage(w, http.StatusMethodNotAllowed, "unsupported method")
		return
	}

	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "unable to parse body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Username and password required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "unable to hash password")
		return
	}

	err = h.users.CreateUser(r.Context(), domain.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			writeMessage(w, http.StatusBadRequest, "Username already taken")
			return
		}
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}

	token, err := auth.Issue(req.Username, h.authConfig)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "unable to issue token")
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		Status:   "success",
		Username: req.Username,
		Token:    token,
		Message:  "User created successfully",
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMessage(w, http.StatusMethodNotAllowed, "unsupported method")
		return
	}

	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "unable to parse body")
		return
	}

	user, err := h.users.FindUser(r.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			writeMessage(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, err := auth.Issue(user.Username, h.authConfig)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "unable to issue token")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Status:   "success",
		Username: user.Username,
		Token:    token,
		Message:  "Login successful",
	})
}

func (h *Handler) logs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.logActivity(w, r)
	case http.MethodGet:
		h.listActivities(w, r)
	default:
		writeMessage(w, http.StatusMethodNotAllowed, "unsupported method")
	}
}

// LogRequest is the payload for POST /v1/logs.
type LogRequest struct {
	InputText string `json:"input_text"`
	Username  string `json:"username"`
}

// BatchResponse describes one processed batch. A batch where every sentence
// failed still returns 201; only malformed input is rejected.
type BatchResponse struct {
	Status          string                  `json:"status"`
	Transcript      string                  `json:"transcript"`
	LogsCount       int                     `json:"logs_count"`
	TotalCO2eKg     float64                 `json:"total_co2e_kg"`
	Activities      []domain.ActivityRecord `json:"activities"`
	FailedSentences []string                `json:"failed_sentences"`
	Message         string                  `json:"message"`
}

func (h *Handler) logActivity(w http.ResponseWriter, r *http.Request) {
	var req LogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "unable to parse body")
		return
	}

	username := h.resolveUsername(r, req.Username)
	if strings.TrimSpace(req.InputText) == "" || username == "" {
		writeMessage(w, http.StatusBadRequest, "Missing input")
		return
	}

	h.runBatch(w, r, req.InputText, username)
}

func (h *Handler) runBatch(w http.ResponseWriter, r *http.Request, inputText, username string) {
	result := h.pipeline.ProcessText(r.Context(), inputText, username)

	resp := BatchResponse{
		Status:          "success",
		Transcript:      inputText,
		LogsCount:       len(result.Records),
		TotalCO2eKg:     result.TotalCO2e,
		Activities:      result.Records,
		FailedSentences: result.FailedSentences,
		Message:         fmt.Sprintf("Processed: %d activities recorded.", len(result.Records)),
	}
	if resp.Activities == nil {
		resp.Activities = []domain.ActivityRecord{}
	}
	if resp.FailedSentences == nil {
		resp.FailedSentences = []string{}
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) logAudio(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMessage(w, http.StatusMethodNotAllowed, "unsupported method")
		return
	}

	audio, contentType, username, ok := h.readAudio(w, r, true)
	if !ok {
		return
	}

	transcript, err := h.recognize(r.Context(), audio, contentType)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, fmt.Sprintf("Transcription Error: %v", err))
		return
	}
	if transcript == "" {
		writeMessage(w, http.StatusBadRequest, "No speech detected in audio.")
		return
	}

	h.runBatch(w, r, transcript, username)
}

// TranscribeResponse returns only the transcript, used to populate the
// frontend textbox.
type TranscribeResponse struct {
	Status     string `json:"status"`
	Transcript string `json:"transcript"`
}

func (h *Handler) transcribeOnly(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMessage(w, http.StatusMethodNotAllowed, "unsupported method")
		return
	}

	audio, contentType, _, ok := h.readAudio(w, r, false)
	if !ok {
		return
	}

	transcript, err := h.recognize(r.Context(), audio, contentType)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, fmt.Sprintf("Transcription failed: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, TranscribeResponse{Status: "success", Transcript: transcript})
}

// readAudio extracts the uploaded audio blob and optional username from a
// multipart form. It writes the error response itself on failure.
func (h *Handler) readAudio(w http.ResponseWriter, r *http.Request, requireUsername bool) ([]byte, string, string, bool) {
	if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
		writeMessage(w, http.StatusBadRequest, "No audio")
		return nil, "", "", false
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "No audio")
		return nil, "", "", false
	}
	defer file.Close()

	username := h.resolveUsername(r, r.FormValue("username"))
	if requireUsername && username == "" {
		writeMessage(w, http.StatusBadRequest, "Missing audio file or username")
		return nil, "", "", false
	}

	audio, err := io.ReadAll(io.LimitReader(file, maxAudioBytes))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "unable to read audio")
		return nil, "", "", false
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/webm"
	}
	return audio, contentType, username, true
}

func (h *Handler) recognize(ctx context.Context, audio []byte, contentType string) (string, error) {
	if h.transcriber == nil {
		return "", errors.New("transcription service not configured")
	}
	return h.transcriber.Recognize(ctx, audio, contentType)
}

// HistoryResponse packages a user's stored records, newest first.
type HistoryResponse struct {
	Status     string                  `json:"status"`
	Count      int                     `json:"count"`
	Activities []domain.ActivityRecord `json:"activities"`
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	username := h.resolveUsername(r, r.URL.Query().Get("username"))
	if username == "" {
		writeMessage(w, http.StatusBadRequest, "Username required")
		return
	}

	records, err := h.history.ListByUser(r.Context(), username, h.historyLimit)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, fmt.Sprintf("History retrieval failed: %v", err))
		return
	}
	if records == nil {
		records = []domain.ActivityRecord{}
	}

	writeJSON(w, http.StatusOK, HistoryResponse{
		Status:     "success",
		Count:      len(records),
		Activities: records,
	})
}

func (h *Handler) factors(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listFactors(w, r)
	case http.MethodPost:
		h.createFactor(w, r)
	default:
		writeMessage(w, http.StatusMethodNotAllowed, "unsupported method")
	}
}

// FactorListResponse returns catalog contents: all known keys, or full rows
// when a key filter is supplied.
type FactorListResponse struct {
	Status  string                  `json:"status"`
	Keys    []string                `json:"keys,omitempty"`
	Factors []domain.EmissionFactor `json:"factors,omitempty"`
}

func (h *Handler) listFactors(w http.ResponseWriter, r *http.Request) {
	if key := strings.TrimSpace(r.URL.Query().Get("key")); key != "" {
		factors, err := h.catalog.Find(r.Context(), key, "", "")
		if err != nil {
			writeMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		if factors == nil {
			factors = []domain.EmissionFactor{}
		}
		writeJSON(w, http.StatusOK, FactorListResponse{Status: "success", Factors: factors})
		return
	}

	keys, err := h.catalog.AllKeys(r.Context())
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, FactorListResponse{Status: "success", Keys: keys})
}

// CreateFactorRequest is the payload for POST /v1/factors. Submissions are
// stored as pending, scoped to the authenticated caller, until promoted by an
// administrator.
type CreateFactorRequest struct {
	Key             string  `json:"key"`
	ActivityType    string  `json:"activity_type"`
	CO2ePerUnit     float64 `json:"co2e_per_unit"`
	Unit            string  `json:"unit"`
	SourceReference string  `json:"source_reference"`
}

// Validate ensures request correctness.
func (r CreateFactorRequest) Validate() error {
	if strings.TrimSpace(r.Key) == "" {
		return errors.New("key is required")
	}
	if strings.TrimSpace(r.ActivityType) == "" {
		return errors.New("activity_type is required")
	}
	if r.CO2ePerUnit <= 0 {
		return errors.New("co2e_per_unit must be > 0")
	}
	if strings.TrimSpace(r.Unit) == "" {
		return errors.New("unit is required")
	}
	return nil
}

func (h *Handler) createFactor(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req CreateFactorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	err := h.catalog.Insert(r.Context(), domain.EmissionFactor{
		Key:             strings.TrimSpace(req.Key),
		ActivityType:    domain.ActivityType(strings.ToUpper(strings.TrimSpace(req.ActivityType))),
		CO2ePerUnit:     req.CO2ePerUnit,
		Unit:            strings.TrimSpace(req.Unit),
		Status:          domain.FactorPending,
		AddedBy:         claims.Username,
		SourceReference: strings.TrimSpace(req.SourceReference),
	})
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"status":  "success",
		"message": "Factor submitted for review",
	})
}

// resolveUsername prefers the authenticated identity, falling back to the
// caller-supplied value.
func (h *Handler) resolveUsername(r *http.Request, fallback string) string {
	if claims, ok := auth.FromContext(r.Context()); ok {
		return claims.Username
	}
	return strings.TrimSpace(fallback)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
