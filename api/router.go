package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires every route. Middleware wraps the router itself so CORS
// preflights and unknown paths are logged and answered too.
func NewRouter(svcs ServicesFactory) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", handleRoot).Methods(http.MethodGet)

	v1 := r.PathPrefix(Prefix).Subrouter()
	v1.HandleFunc("/health", handleHealth).Methods(http.MethodGet)

	handleBoth(v1, "/upload", handleUpload(svcs), http.MethodPost)
	handleBoth(v1, "/inference", handleInference(svcs), http.MethodPost)
	handleBoth(v1, "/metrics", handleMetrics(svcs), http.MethodGet)

	if svcs.Gatherer != nil {
		v1.Handle("/metrics/prometheus", promhttp.HandlerFor(svcs.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	return requestLogger(apiVersion(cors(r)))
}

// handleBoth serves path with and without the trailing slash.
func handleBoth(r *mux.Router, path string, h http.HandlerFunc, method string) {
	r.HandleFunc(path, h).Methods(method)
	r.HandleFunc(path+"/", h).Methods(method)
}

func handleRoot(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, http.StatusOK, map[string]string{"message": "AFL Vision Backend Running"})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "version": 1})
}
