package rest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/doantruong120699/voice-cloner-backend/internal/audiofile"
	"github.com/doantruong120699/voice-cloner-backend/internal/engine"
	"github.com/doantruong120699/voice-cloner-backend/internal/httpx"
	"github.com/doantruong120699/voice-cloner-backend/internal/middleware"
	"github.com/doantruong120699/voice-cloner-backend/internal/router"
	"github.com/doantruong120699/voice-cloner-backend/internal/serr"
	"github.com/doantruong120699/voice-cloner-backend/internal/service"
	"github.com/doantruong120699/voice-cloner-backend/internal/store"
)

const (
	minSampleRate = 8000
	maxSampleRate = 48000
)

type voiceService interface {
	Register(ctx context.Context, r service.RegisterVoiceRequest) (store.Voice, error)
	Get(ctx context.Context, voiceID string) (store.Voice, error)
	ListByUser(ctx context.Context, userID string) ([]store.Voice, error)
	Delete(ctx context.Context, voiceID, userID string) error
	Synthesize(ctx context.Context, r service.SynthesizeRequest) ([]byte, error)
}

// VoicesAPI serves the voice sample endpoints. Upload, list and delete
// require the authn middleware; reading metadata and synthesizing are
// public.
type VoicesAPI struct {
	srv               voiceService
	mux               *http.ServeMux
	maxUploadSize     int64
	defaultSampleRate int
	defaultFormat     string
}

type VoicesConfig struct {
	MaxUploadSize     int64
	DefaultSampleRate int
	DefaultFormat     string
}

func NewVoicesAPI(srv voiceService, authn router.Middleware, cfg VoicesConfig) *VoicesAPI {
	api := &VoicesAPI{
		srv:               srv,
		mux:               http.NewServeMux(),
		maxUploadSize:     cfg.MaxUploadSize,
		defaultSampleRate: cfg.DefaultSampleRate,
		defaultFormat:     cfg.DefaultFormat,
	}
	api.mount(authn)
	return api
}

func (a *VoicesAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

func (a *VoicesAPI) mount(authn router.Middleware) {
	a.mux.Handle("POST /voices", authn(http.HandlerFunc(a.handleUpload)))
	a.mux.Handle("GET /voices", authn(http.HandlerFunc(a.handleList)))
	a.mux.HandleFunc("GET /voices/{voice_id}", a.handleGet)
	a.mux.Handle("DELETE /voices/{voice_id}", authn(http.HandlerFunc(a.handleDelete)))
	a.mux.HandleFunc("POST /voices/{voice_id}/synthesize", a.handleSynthesize)
}

type uploadResponse struct {
	VoiceID    string   `json:"voice_id"`
	Filename   string   `json:"filename"`
	Duration   *float64 `json:"duration"`
	SampleRate *int     `json:"sample_rate"`
	Message    string   `json:"message"`
}

func (a *VoicesAPI) handleUpload(w http.ResponseWriter, r *http.Request) {
	usr, ok := middleware.UserFromContext(r.Context())
	if !ok {
		httpx.HandleErr(w, r, serr.New(nil, http.StatusUnauthorized, "not authenticated"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.maxUploadSize)
	if err := r.ParseMultipartForm(a.maxUploadSize); err != nil {
		httpx.HandleErr(w, r, serr.New(err, http.StatusBadRequest, "invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.HandleErr(w, r, serr.New(err, http.StatusBadRequest, "file is required"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !audiofile.ValidContentType(contentType) {
		httpx.HandleErr(w, r, serr.New(nil, http.StatusBadRequest,
			"file content type %q is not supported", contentType).
			WithDetail("supported types: %s", strings.Join(audiofile.SupportedContentTypes(), ", ")))
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		httpx.HandleErr(w, r, serr.New(err, http.StatusBadRequest, "failed to read uploaded file"))
		return
	}

	v, err := a.srv.Register(r.Context(), service.RegisterVoiceRequest{
		UserID:      usr.ID,
		Content:     content,
		Filename:    header.Filename,
		Name:        optionalForm(r, "name"),
		Description: optionalForm(r, "description"),
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	err = httpx.WriteJSON(w, http.StatusCreated, uploadResponse{
		VoiceID:    v.ID,
		Filename:   v.Filename,
		Duration:   v.Duration,
		SampleRate: v.SampleRate,
		Message:    "voice sample uploaded successfully",
	})
	if err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
		return
	}
}

type voicePayload struct {
	VoiceID     string    `json:"voice_id"`
	Filename    string    `json:"filename"`
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Duration    *float64  `json:"duration"`
	SampleRate  *int      `json:"sample_rate"`
	CreatedAt   time.Time `json:"created_at"`
}

func toVoicePayload(v store.Voice) voicePayload {
	return voicePayload{
		VoiceID:     v.ID,
		Filename:    v.Filename,
		Name:        v.Name,
		Description: v.Description,
		Duration:    v.Duration,
		SampleRate:  v.SampleRate,
		CreatedAt:   v.CreatedAt,
	}
}

type listResponse struct {
	Voices []voicePayload `json:"voices"`
}

func (a *VoicesAPI) handleList(w http.ResponseWriter, r *http.Request) {
	usr, ok := middleware.UserFromContext(r.Context())
	if !ok {
		httpx.HandleErr(w, r, serr.New(nil, http.StatusUnauthorized, "not authenticated"))
		return
	}

	voices, err := a.srv.ListByUser(r.Context(), usr.ID)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	resp := listResponse{Voices: make([]voicePayload, 0, len(voices))}
	for _, v := range voices {
		resp.Voices = append(resp.Voices, toVoicePayload(v))
	}

	if err := httpx.WriteJSON(w, http.StatusOK, resp); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
		return
	}
}

func (a *VoicesAPI) handleGet(w http.ResponseWriter, r *http.Request) {
	v, err := a.srv.Get(r.Context(), r.PathValue("voice_id"))
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, toVoicePayload(v)); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
		return
	}
}

func (a *VoicesAPI) handleDelete(w http.ResponseWriter, r *http.Request) {
	usr, ok := middleware.UserFromContext(r.Context())
	if !ok {
		httpx.HandleErr(w, r, serr.New(nil, http.StatusUnauthorized, "not authenticated"))
		return
	}

	if err := a.srv.Delete(r.Context(), r.PathValue("voice_id"), usr.ID); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type synthesizeRequest struct {
	Text       string `json:"text"`
	Format     string `json:"format"`
	SampleRate int    `json:"sample_rate"`
}

func (a *VoicesAPI) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var req synthesizeRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, serr.New(err, http.StatusBadRequest, "invalid request body"))
		return
	}

	if req.Format == "" {
		req.Format = a.defaultFormat
	}
	if req.SampleRate == 0 {
		req.SampleRate = a.defaultSampleRate
	}

	if req.Format != engine.FormatWAV && req.Format != engine.FormatMP3 {
		httpx.HandleErr(w, r, serr.New(nil, http.StatusBadRequest,
			"format must be %q or %q", engine.FormatWAV, engine.FormatMP3))
		return
	}

	if req.SampleRate < minSampleRate || req.SampleRate > maxSampleRate {
		httpx.HandleErr(w, r, serr.New(nil, http.StatusBadRequest,
			"sample_rate must be between %d and %d", minSampleRate, maxSampleRate))
		return
	}

	audio, err := a.srv.Synthesize(r.Context(), service.SynthesizeRequest{
		VoiceID:    r.PathValue("voice_id"),
		Text:       req.Text,
		Format:     req.Format,
		SampleRate: req.SampleRate,
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	contentType := "audio/wav"
	if req.Format == engine.FormatMP3 {
		contentType = "audio/mpeg"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=synthesized.%s", req.Format))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write audio response: %w", err))
		return
	}
}

func optionalForm(r *http.Request, field string) *string {
	if v := r.FormValue(field); v != "" {
		return &v
	}
	return nil
}
