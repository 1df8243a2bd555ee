package api

import (
	"io"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/index-back/pkg/config"
)

// relayHandler forwards query parameters to the upstream API verbatim and
// returns the upstream body untouched. Its only job is to give same-origin
// browser callers a path to the upstream host; it never interprets the
// response, and it owns the credential so the browser never sees it.
type relayHandler struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	maxBodySize int64
	logger      *logrus.Entry
}

func newRelayHandler(cfg *config.UpstreamConfig, logger *logrus.Logger) *relayHandler {
	return &relayHandler{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		maxBodySize: cfg.MaxBodySize,
		logger:      logger.WithField("component", "relay"),
	}
}

func (h *relayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	target, err := url.Parse(h.baseURL)
	if err != nil {
		http.Error(w, "relay misconfigured", http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	q.Set("apikey", h.apiKey)
	target.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target.String(), nil)
	if err != nil {
		http.Error(w, "failed to build upstream request", http.StatusInternalServerError)
		return
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		h.logger.WithError(err).Warn("Relay request failed")
		http.Error(w, "upstream unreachable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, io.LimitReader(resp.Body, h.maxBodySize)); err != nil {
		h.logger.WithError(err).Debug("Relay copy interrupted")
	}
}
