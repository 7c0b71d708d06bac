package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fiffu/framenotify/config"
	"github.com/fiffu/framenotify/lib"
	"github.com/fiffu/framenotify/lib/models"
	"github.com/fiffu/framenotify/lib/store"
	"github.com/fiffu/framenotify/lib/webhook"
)

const maxWebhookBytes = 1 << 20

func NewAPI(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, svc *lib.Service) *http.Server {
	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	srv := &http.Server{Addr: addr, Handler: router(cfg, log, svc)}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go srv.ListenAndServe()
			log.Sugar().Infow("API listening", "addr", addr)
			return nil
		},
		OnStop: srv.Shutdown,
	})

	return srv
}

func router(cfg *config.Config, log *zap.Logger, svc *lib.Service) http.Handler {
	ctrl := &controller{log, svc}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/webhook", ctrl.webhook)

	r.Route("/api", func(r chi.Router) {
		if creds := cfg.GetCreds(); len(creds) > 0 {
			r.Use(middleware.BasicAuth("framenotify", creds))
		} else {
			log.Sugar().Info("Auth is disabled since no credentials are defined")
		}

		r.Get("/events", ctrl.listEvents)
		r.Get("/subscriptions", ctrl.listSubscriptions)
		r.Route("/posts/{post_id}", func(r chi.Router) {
			r.Put("/", ctrl.savePost)
			r.Get("/tokens", ctrl.deliveredTokens)
		})
	})

	return r
}

type controller struct {
	log *zap.Logger
	svc *lib.Service
}

type errorEnvelope struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Data    map[string]int `json:"data"`
}

func (ctrl *controller) reject(w http.ResponseWriter, status int, err error) {
	if err != nil {
		http.Error(w, err.Error(), status)
	} else {
		w.WriteHeader(status)
	}
}

func (ctrl *controller) rejectWithCode(w http.ResponseWriter, status int, code, message string) {
	ctrl.resolve(w, status, errorEnvelope{code, message, map[string]int{"status": status}})
}

func (ctrl *controller) resolve(w http.ResponseWriter, status int, body any) {
	if b, err := json.Marshal(body); err != nil {
		ctrl.reject(w, http.StatusInternalServerError, err)
		ctrl.log.Sugar().Errorw("Request failed", "error", err)
		return
	} else {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if b != nil {
			w.Write(b)
		}
	}
}

func (ctrl *controller) webhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		ctrl.rejectWithCode(w, http.StatusBadRequest, webhook.CodeInvalidParameters, "Invalid webhook parameters")
		return
	}

	res, err := ctrl.svc.HandleWebhook(ctx, body)
	var verr *webhook.ValidationError
	var invalid *webhook.InvalidEventError
	switch {
	case errors.As(err, &verr):
		ctrl.rejectWithCode(w, http.StatusBadRequest, verr.Code, verr.Message)
		return
	case errors.As(err, &invalid):
		ctrl.rejectWithCode(w, http.StatusBadRequest, webhook.CodeInvalidPayload, invalid.Error())
		return
	case err != nil:
		ctrl.reject(w, http.StatusInternalServerError, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, res)
}

func (ctrl *controller) listEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			ctrl.reject(w, http.StatusBadRequest, errors.New("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	events, err := ctrl.svc.Events.List(ctx, limit)
	if err != nil {
		ctrl.reject(w, http.StatusInternalServerError, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, FromMany[*models.Event, EventView](ptrs(events)))
}

func (ctrl *controller) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := ctrl.svc.Subscriptions.ListActive(r.Context())
	if err != nil {
		ctrl.reject(w, http.StatusInternalServerError, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, FromMany[*models.Subscription, SubscriptionView](ptrs(subs)))
}

type savePostRequest struct {
	Title                 string `json:"title"`
	Excerpt               string `json:"excerpt"`
	Content               string `json:"content"`
	Permalink             string `json:"permalink"`
	Status                string `json:"status"`
	SuppressNotifications bool   `json:"suppress_notifications"`
}

func (ctrl *controller) savePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	postID, ok := parseID(chi.URLParam(r, "post_id"))
	if !ok {
		ctrl.reject(w, http.StatusBadRequest, errors.New("post_id must be a positive integer"))
		return
	}

	var req savePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctrl.reject(w, http.StatusBadRequest, err)
		return
	}
	if req.Status == "" {
		ctrl.reject(w, http.StatusBadRequest, errors.New("status is required"))
		return
	}

	post := &models.Post{
		ID:                    postID,
		Title:                 req.Title,
		Excerpt:               req.Excerpt,
		Content:               req.Content,
		Permalink:             req.Permalink,
		Status:                req.Status,
		SuppressNotifications: req.SuppressNotifications,
	}
	scheduled, err := ctrl.svc.SavePost(ctx, post)
	if err != nil {
		ctrl.reject(w, http.StatusInternalServerError, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, map[string]any{
		"post":                    PostView{}.From(post),
		"notifications_scheduled": scheduled,
	})
}

func (ctrl *controller) deliveredTokens(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	postID, ok := parseID(chi.URLParam(r, "post_id"))
	if !ok {
		ctrl.reject(w, http.StatusBadRequest, errors.New("post_id must be a positive integer"))
		return
	}

	if _, err := ctrl.svc.Posts.Find(ctx, postID); errors.Is(err, store.ErrNotFound) {
		ctrl.reject(w, http.StatusNotFound, err)
		return
	} else if err != nil {
		ctrl.reject(w, http.StatusInternalServerError, err)
		return
	}

	tokens, err := ctrl.svc.Posts.DeliveredTokens(ctx, postID)
	if err != nil {
		ctrl.reject(w, http.StatusInternalServerError, err)
		return
	}
	if tokens == nil {
		tokens = []string{}
	}
	ctrl.resolve(w, http.StatusOK, map[string]any{"post_id": postID, "tokens": tokens})
}

func parseID(s string) (uint64, bool) {
	u, err := strconv.ParseUint(s, 10, 64)
	return u, err == nil && u > 0
}
