package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/getsentry/sentry-go"

	"github.com/WebRendHQ/MaclellanFamily.com/internal/config"
	"github.com/WebRendHQ/MaclellanFamily.com/internal/entities"
	"github.com/WebRendHQ/MaclellanFamily.com/internal/lease"
	"github.com/WebRendHQ/MaclellanFamily.com/internal/syncer"
)

type Syncer interface {
	Sync(ctx context.Context, opts syncer.Options) error
}

type Catalog interface {
	ListByOwner(ctx context.Context, ownerFolder string) ([]entities.Asset, error)
}

type Handler struct {
	syncer  Syncer
	catalog Catalog
	cfg     *config.Config
}

func New(s Syncer, catalog Catalog, cfg *config.Config) *Handler {
	return &Handler{
		syncer:  s,
		catalog: catalog,
		cfg:     cfg,
	}
}

// VerifyWebhook answers the origin store's endpoint verification: echo the
// challenge query parameter as plain text.
func (h *Handler) VerifyWebhook(w http.ResponseWriter, r *http.Request) {
	challenge := r.URL.Query().Get("challenge")
	if challenge == "" {
		writeJSONError(w, "missing challenge parameter", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(challenge))
}

// Webhook receives change notifications. The response must stay
// latency-bounded, so the sync pass runs detached and the caller always gets
// 200; pass failures surface through sentry, not the response.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	go h.runSyncPass()

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// TriggerSync is the manual equivalent of the webhook for operators.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	go h.runSyncPass()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "sync started"})
}

func (h *Handler) runSyncPass() {
	opts := syncer.Options{
		Root:        h.cfg.Sync.RootPrefix,
		OwnerFolder: h.cfg.Sync.OwnerFolder,
		Recursive:   h.cfg.Sync.Recursive,
	}

	// Detached from the request; the webhook has already returned.
	err := h.syncer.Sync(context.Background(), opts)
	if err == nil {
		return
	}
	if errors.Is(err, lease.ErrHeld) {
		log.Printf("[webhook] sync pass skipped: %v", err)
		return
	}
	log.Printf("[webhook] sync pass failed: %v", err)
	sentry.CaptureException(err)
}

// ListAssets serves the mirrored library index for one owner folder.
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		owner = h.cfg.Sync.OwnerFolder
	}

	assets, err := h.catalog.ListByOwner(r.Context(), owner)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(assets); err != nil {
		log.Printf("[handler] encode assets: %v", err)
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
