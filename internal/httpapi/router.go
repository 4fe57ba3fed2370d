package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"resqnowserver/internal/service"
	"resqnowserver/internal/storage"
)

// HospitalFinder proxies a nearby search and returns the upstream JSON body.
type HospitalFinder interface {
	NearbyHospitals(ctx context.Context, lat, lng string) ([]byte, error)
}

// ImageOpener fetches one stored object by its bucket-relative path.
type ImageOpener interface {
	Open(ctx context.Context, path string) (*storage.Object, error)
}

type RouterOpts struct {
	Logger *slog.Logger
	IsProd bool

	DBPing func(context.Context) error

	Verifier  IDTokenVerifier
	Access    *service.AccessService
	Lifecycle *service.LifecycleService
	Sync      *service.SyncService
	Publish   *service.PublishService
	Identity  service.IdentityService
	Places    HospitalFinder
	Images    ImageOpener
}

func NewRouter(opts RouterOpts) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	api := &api{
		logger:       logger,
		isProd:       opts.IsProd,
		dbPing:       opts.DBPing,
		verifier:     opts.Verifier,
		accessSvc:    opts.Access,
		lifecycleSvc: opts.Lifecycle,
		syncSvc:      opts.Sync,
		publishSvc:   opts.Publish,
		identitySvc:  opts.Identity,
		placesClient: opts.Places,
		imageStore:   opts.Images,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", api.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	if api.verifier == nil || api.accessSvc == nil {
		mux.HandleFunc("POST /v1/access/check", handleNotImplemented)
	} else {
		mux.HandleFunc("POST /v1/access/check", api.requireAuth(api.handleAccessCheck))
	}

	if api.verifier == nil || api.lifecycleSvc == nil {
		mux.HandleFunc("POST /v1/admin/users/suspend", handleNotImplemented)
		mux.HandleFunc("POST /v1/admin/users/reactivate", handleNotImplemented)
		mux.HandleFunc("POST /v1/admin/users/delete", handleNotImplemented)
	} else {
		mux.HandleFunc("POST /v1/admin/users/suspend", api.requireAuth(api.handleAdminSuspend))
		mux.HandleFunc("POST /v1/admin/users/reactivate", api.requireAuth(api.handleAdminReactivate))
		mux.HandleFunc("POST /v1/admin/users/delete", api.requireAuth(api.handleAdminDelete))
	}

	if api.verifier == nil || api.syncSvc == nil {
		mux.HandleFunc("POST /v1/admin/blocked-emails/sync", handleNotImplemented)
	} else {
		mux.HandleFunc("POST /v1/admin/blocked-emails/sync", api.requireAuth(api.handleAdminSync))
	}

	if api.verifier == nil || api.publishSvc == nil {
		mux.HandleFunc("POST /v1/admin/notifications", handleNotImplemented)
		mux.HandleFunc("GET /v1/admin/notifications/{id}", handleNotImplemented)
	} else {
		mux.HandleFunc("POST /v1/admin/notifications", api.requireAuth(api.handleNotificationsCreate))
		mux.HandleFunc("GET /v1/admin/notifications/{id}", api.requireAuth(api.handleNotificationsGet))
	}

	if api.identitySvc == nil {
		mux.HandleFunc("POST /v1/auth/delete-account", handleNotImplemented)
	} else {
		mux.HandleFunc("POST /v1/auth/delete-account", api.handleAuthDeleteAccount)
	}

	if api.placesClient == nil {
		mux.HandleFunc("GET /v1/hospitals/nearby", handleNotImplemented)
	} else {
		mux.HandleFunc("GET /v1/hospitals/nearby", api.handleHospitalsNearby)
	}

	// The image proxy registers the bare path so it can answer OPTIONS and
	// reject other methods itself.
	if api.imageStore == nil {
		mux.HandleFunc("/v1/images", handleNotImplemented)
	} else {
		mux.HandleFunc("/v1/images", api.handleImage)
	}

	var h http.Handler = mux
	h = Metrics(mux)(h)
	h = RequestLogger(logger)(h)
	h = RequestID()(h)
	h = Recoverer(logger, opts.IsProd)(h)
	return h
}

func handleNotImplemented(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotImplemented, "not_implemented", "not implemented")
}

type api struct {
	logger *slog.Logger
	isProd bool

	dbPing func(context.Context) error

	verifier     IDTokenVerifier
	accessSvc    *service.AccessService
	lifecycleSvc *service.LifecycleService
	syncSvc      *service.SyncService
	publishSvc   *service.PublishService
	identitySvc  service.IdentityService
	placesClient HospitalFinder
	imageStore   ImageOpener
}

func (a *api) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if a.dbPing != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()
		if err := a.dbPing(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db down"))
			return
		}
	}

	_, _ = w.Write([]byte("ok"))
}
