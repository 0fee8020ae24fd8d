package explorer

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/kube-reporting/cost-explorer/pkg/aggregate"
	"github.com/kube-reporting/cost-explorer/pkg/provision"
	"github.com/kube-reporting/cost-explorer/pkg/targets"
)

const (
	APIV1ProjectsEndpointPrefix = "/api/v1/projects"
	APIV1DashboardEndpoint      = "/api/v1/dashboard"

	// maxDashboardWait bounds the wait query parameter of dashboard reads.
	maxDashboardWait = 5 * time.Minute
)

type server struct {
	logger log.FieldLogger
	rand   *rand.Rand
	svc    *Service

	healthCheckSingleFlight singleflight.Group
}

type requestLogger struct {
	log.FieldLogger
}

func (l *requestLogger) Print(v ...interface{}) {
	l.FieldLogger.Info(v...)
}

// targetResponse is a target as returned by the API, without its secret
// key.
type targetResponse struct {
	ProjectID      string `json:"projectId"`
	Name           string `json:"targetName"`
	AccessKey      string `json:"accessKey"`
	Region         string `json:"region"`
	InputLocation  string `json:"cururl"`
	OutputLocation string `json:"output"`
}

func newTargetResponse(t targets.Target) targetResponse {
	return targetResponse{
		ProjectID:      t.ProjectID,
		Name:           t.Name,
		AccessKey:      t.AccessKey,
		Region:         t.Region,
		InputLocation:  t.InputLocation,
		OutputLocation: t.OutputLocation,
	}
}

type selectResponse struct {
	ProjectID  string `json:"projectId"`
	TargetName string `json:"targetName"`
	Generation uint64 `json:"generation"`
}

func newRouter(logger log.FieldLogger, rand *rand.Rand, svc *Service) chi.Router {
	router := chi.NewRouter()
	logger = logger.WithField("component", "api")
	requestLogger := middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: &requestLogger{logger}})
	router.Use(requestLogger)

	srv := &server{
		logger: logger,
		rand:   rand,
		svc:    svc,
	}

	targetsPath := APIV1ProjectsEndpointPrefix + "/{project}/targets"
	router.Get(targetsPath, srv.listTargetsHandler)
	router.Post(targetsPath, srv.registerTargetHandler)
	router.Patch(targetsPath+"/{name}", srv.editTargetHandler)
	router.Delete(targetsPath+"/{name}", srv.deleteTargetHandler)
	router.Post(targetsPath+"/{name}/select", srv.selectTargetHandler)
	router.Get(APIV1DashboardEndpoint, srv.dashboardHandler)
	router.HandleFunc("/ready", srv.readinessHandler)
	router.HandleFunc("/healthy", srv.healthinessHandler)

	return router
}

// writeServiceError writes err with the status code matching its class.
func (srv *server) writeServiceError(logger log.FieldLogger, w http.ResponseWriter, r *http.Request, err error) {
	code := statusCode(err)
	if code >= http.StatusInternalServerError {
		logger.WithError(err).Errorf("request failed: %v", err)
	} else {
		logger.WithError(err).Debugf("request rejected: %v", err)
	}
	resp := errorResponse{Error: err.Error()}
	var permErr *provision.PermissionError
	if errors.As(err, &permErr) {
		resp.RequiredPermissions = permErr.RequiredPermissions
	}
	writeResponseAsJSON(logger, w, code, resp)
}

func (srv *server) listTargetsHandler(w http.ResponseWriter, r *http.Request) {
	logger := newRequestLogger(srv.logger, r, srv.rand)
	list, err := srv.svc.ListTargets(r.Context(), chi.URLParam(r, "project"))
	if err != nil {
		srv.writeServiceError(logger, w, r, err)
		return
	}
	resp := make([]targetResponse, len(list))
	for i, t := range list {
		resp[i] = newTargetResponse(t)
	}
	writeResponseAsJSON(logger, w, http.StatusOK, resp)
}

func (srv *server) registerTargetHandler(w http.ResponseWriter, r *http.Request) {
	logger := newRequestLogger(srv.logger, r, srv.rand)
	var t targets.Target
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeErrorResponse(logger, w, r, http.StatusBadRequest, "invalid target: %v", err)
		return
	}
	saved, err := srv.svc.RegisterTarget(r.Context(), chi.URLParam(r, "project"), t)
	if err != nil {
		srv.writeServiceError(logger, w, r, err)
		return
	}
	writeResponseAsJSON(logger, w, http.StatusCreated, newTargetResponse(saved))
}

func (srv *server) editTargetHandler(w http.ResponseWriter, r *http.Request) {
	logger := newRequestLogger(srv.logger, r, srv.rand)
	var u targets.Update
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeErrorResponse(logger, w, r, http.StatusBadRequest, "invalid target update: %v", err)
		return
	}
	updated, err := srv.svc.EditTarget(r.Context(), chi.URLParam(r, "project"), chi.URLParam(r, "name"), u)
	if err != nil {
		srv.writeServiceError(logger, w, r, err)
		return
	}
	writeResponseAsJSON(logger, w, http.StatusOK, newTargetResponse(updated))
}

func (srv *server) deleteTargetHandler(w http.ResponseWriter, r *http.Request) {
	logger := newRequestLogger(srv.logger, r, srv.rand)
	if err := srv.svc.DeleteTarget(r.Context(), chi.URLParam(r, "project"), chi.URLParam(r, "name")); err != nil {
		srv.writeServiceError(logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (srv *server) selectTargetHandler(w http.ResponseWriter, r *http.Request) {
	logger := newRequestLogger(srv.logger, r, srv.rand)
	project, name := chi.URLParam(r, "project"), chi.URLParam(r, "name")
	gen, err := srv.svc.SelectTarget(r.Context(), project, name)
	if err != nil {
		srv.writeServiceError(logger, w, r, err)
		return
	}
	writeResponseAsJSON(logger, w, http.StatusAccepted, selectResponse{ProjectID: project, TargetName: name, Generation: gen})
}

func criteriaFromQuery(r *http.Request) aggregate.Criteria {
	q := r.URL.Query()
	return aggregate.Criteria{
		Account:       q.Get("account"),
		Product:       q.Get("product"),
		ProductFamily: q.Get("productFamily"),
		Region:        q.Get("region"),
		ResourceID:    q.Get("resourceId"),
		Operation:     q.Get("operation"),
		EffectiveCost: q.Get("effectiveCost"),
		StartDate:     q.Get("startDate"),
		EndDate:       q.Get("endDate"),
		UsageAmount:   q.Get("usageAmount"),
	}
}

// dashboardHandler returns the dashboard of the selected target. The wait
// query parameter is a duration to wait for a pending pipeline.
func (srv *server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	logger := newRequestLogger(srv.logger, r, srv.rand)
	if waitStr := r.URL.Query().Get("wait"); waitStr != "" {
		wait, err := time.ParseDuration(waitStr)
		if err != nil || wait < 0 {
			writeErrorResponse(logger, w, r, http.StatusBadRequest, "invalid wait duration %q", waitStr)
			return
		}
		if wait > maxDashboardWait {
			wait = maxDashboardWait
		}
		ctx, cancel := context.WithTimeout(r.Context(), wait)
		srv.svc.WaitForSelection(ctx)
		cancel()
	}

	dashboard, err := srv.svc.Dashboard(r.Context(), criteriaFromQuery(r))
	if err != nil {
		srv.writeServiceError(logger, w, r, err)
		return
	}
	writeResponseAsJSON(logger, w, http.StatusOK, dashboard)
}
