package explorer

import (
	"net/http"

	"github.com/sirupsen/logrus"
)

type statusResponse struct {
	Status  string      `json:"status"`
	Details interface{} `json:"details"`
}

// readinessHandler fails while the credential store cannot be read.
func (srv *server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	logger := newRequestLogger(srv.logger, r, srv.rand)
	if !srv.testReadStoreSingleFlight(logger, r) {
		writeResponseAsJSON(logger, w, http.StatusInternalServerError,
			statusResponse{
				Status:  "not ready",
				Details: "cannot read the credential store",
			})
		return
	}
	writeResponseAsJSON(logger, w, http.StatusOK, statusResponse{Status: "ok"})
}

func (srv *server) healthinessHandler(w http.ResponseWriter, r *http.Request) {
	logger := newRequestLogger(srv.logger, r, srv.rand)
	writeResponseAsJSON(logger, w, http.StatusOK, statusResponse{Status: "ok"})
}

func (srv *server) testReadStoreSingleFlight(logger logrus.FieldLogger, r *http.Request) bool {
	const key = "store-read"
	v, _, _ := srv.healthCheckSingleFlight.Do(key, func() (interface{}, error) {
		defer srv.healthCheckSingleFlight.Forget(key)
		if err := srv.svc.Ready(r.Context()); err != nil {
			logger.WithError(err).Debugf("cannot read the credential store")
			return false, nil
		}
		return true, nil
	})
	return v.(bool)
}
