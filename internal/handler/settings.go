package handler

import "net/http"

// GetSettings serves the merchant fee settings document as stored. The
// client performs the tolerant decode; a malformed document is the client's
// problem to degrade, not ours to reject.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	doc, err := h.settings.Document(r.Context())
	if err != nil {
		respondInternal(w, r, err, "Load settings")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}
