// Package v1 provides the /api/v1 image endpoints.
package v1

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sdr-enthusiasts/sdr-image-api/internal/api/common"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/service"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/telemetry"
)

// NeverUpdated is reported by last-updated when no sync has been recorded
const NeverUpdated = "never"

// Query kinds recorded on the images served counter
const (
	queryAll                = "all"
	queryStable             = "stable"
	queryRecommended        = "recommended"
	querySecondaryRecommend = "trixie_recommended"
	queryByName             = "byname"
	queryByNameStable       = "byname_stable"
	queryByNameRecommended  = "byname_recommended"
	queryByNameSecondary    = "trixie_byname_recommended"
)

// ImagesResponse is the body of every image listing
type ImagesResponse struct {
	Images []service.Image `json:"images"`
}

// LastUpdatedResponse carries an RFC3339 timestamp or "never"
type LastUpdatedResponse struct {
	LastUpdated string `json:"lastUpdated"`
}

// Routes handles HTTP requests for the v1 image endpoints
type Routes struct {
	service service.ImageService
	metrics *telemetry.ImageMetrics
}

// NewRoutes creates a new Routes instance. metrics may be nil.
func NewRoutes(svc service.ImageService, metrics *telemetry.ImageMetrics) *Routes {
	return &Routes{
		service: svc,
		metrics: metrics,
	}
}

// Router creates and configures the router for the v1 endpoints
func Router(svc service.ImageService, metrics *telemetry.ImageMetrics) http.Handler {
	routes := NewRoutes(svc, metrics)

	r := chi.NewRouter()

	r.Get("/last-updated", routes.lastUpdated)

	r.Route("/images", func(r chi.Router) {
		r.Get("/all", routes.listAll)
		r.Get("/all/stable", routes.listAllStable)
		r.Get("/all/recommended", routes.recommendAll)
		r.Get("/trixie/all/recommended", routes.recommendAllSecondary)

		r.Route("/byname/{name}", func(r chi.Router) {
			r.Get("/", routes.listByName)
			r.Get("/stable", routes.listByNameStable)
			r.Get("/recommended", routes.recommendByName)
		})
		r.Get("/trixie/byname/{name}/recommended", routes.recommendByNameSecondary)
	})

	return r
}

// lastUpdated handles GET /api/v1/last-updated
func (routes *Routes) lastUpdated(w http.ResponseWriter, r *http.Request) {
	resp := LastUpdatedResponse{LastUpdated: NeverUpdated}

	last, err := routes.service.GetLastUpdated(r.Context())
	switch {
	case err != nil:
		slog.Error("Failed to read last sync time",
			"error", err,
			"request_id", middleware.GetReqID(r.Context()))
	case last != nil:
		resp.LastUpdated = last.UTC().Format(time.RFC3339)
	}

	common.WriteJSONResponse(w, resp, http.StatusOK)
}

// listAll handles GET /api/v1/images/all[?stable=true]
func (routes *Routes) listAll(w http.ResponseWriter, r *http.Request) {
	if common.QueryFlag(r, "stable") {
		routes.listAllStable(w, r)
		return
	}
	routes.writeImages(w, r, queryAll, routes.list(r))
}

// listAllStable handles GET /api/v1/images/all/stable
func (routes *Routes) listAllStable(w http.ResponseWriter, r *http.Request) {
	routes.writeImages(w, r, queryStable, routes.list(r, service.WithStableOnly()))
}

// recommendAll handles GET /api/v1/images/all/recommended
func (routes *Routes) recommendAll(w http.ResponseWriter, r *http.Request) {
	routes.writeImages(w, r, queryRecommended, service.Recommend(routes.list(r)))
}

// recommendAllSecondary handles GET /api/v1/images/trixie/all/recommended
func (routes *Routes) recommendAllSecondary(w http.ResponseWriter, r *http.Request) {
	routes.writeImages(w, r, querySecondaryRecommend, service.RecommendSecondary(routes.list(r)))
}

// listByName handles GET /api/v1/images/byname/{name}[?stable=true]
func (routes *Routes) listByName(w http.ResponseWriter, r *http.Request) {
	if common.QueryFlag(r, "stable") {
		routes.listByNameStable(w, r)
		return
	}
	name, ok := nameParam(w, r)
	if !ok {
		return
	}
	routes.writeImages(w, r, queryByName, routes.list(r, service.WithName(name)))
}

// listByNameStable handles GET /api/v1/images/byname/{name}/stable
func (routes *Routes) listByNameStable(w http.ResponseWriter, r *http.Request) {
	name, ok := nameParam(w, r)
	if !ok {
		return
	}
	routes.writeImages(w, r, queryByNameStable,
		routes.list(r, service.WithName(name), service.WithStableOnly()))
}

// recommendByName handles GET /api/v1/images/byname/{name}/recommended
func (routes *Routes) recommendByName(w http.ResponseWriter, r *http.Request) {
	name, ok := nameParam(w, r)
	if !ok {
		return
	}
	routes.writeImages(w, r, queryByNameRecommended,
		service.Recommend(routes.list(r, service.WithName(name))))
}

// recommendByNameSecondary handles GET /api/v1/images/trixie/byname/{name}/recommended
func (routes *Routes) recommendByNameSecondary(w http.ResponseWriter, r *http.Request) {
	name, ok := nameParam(w, r)
	if !ok {
		return
	}
	routes.writeImages(w, r, queryByNameSecondary,
		service.RecommendSecondary(routes.list(r, service.WithName(name))))
}

// list reads from the service; read failures are logged and yield no records
func (routes *Routes) list(r *http.Request, opts ...service.Option) []service.Image {
	images, err := routes.service.ListImages(r.Context(), opts...)
	if err != nil {
		slog.Error("Failed to list images",
			"error", err,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()))
		return []service.Image{}
	}
	if images == nil {
		return []service.Image{}
	}
	return images
}

func (routes *Routes) writeImages(w http.ResponseWriter, r *http.Request, query string, images []service.Image) {
	routes.metrics.RecordImagesServed(r.Context(), query, len(images))
	common.WriteJSONResponse(w, ImagesResponse{Images: images}, http.StatusOK)
}

func nameParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	name, err := common.GetAndValidateURLParam(r, "name")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return name, true
}
