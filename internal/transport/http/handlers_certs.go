package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"dirgate/internal/ipa"
)

type signCertRequest struct {
	User string `json:"user"`
	CSR  string `json:"csr"`
}

func (h *Handler) handleSignCert(w http.ResponseWriter, r *http.Request) {
	if h.certs == nil {
		h.writeAPIError(w, http.StatusServiceUnavailable, "Certificate API is not configured", nil)
		return
	}
	var req signCertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeAPIError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if req.User == "" || req.CSR == "" {
		h.writeAPIError(w, http.StatusBadRequest, "user and csr are required", nil)
		return
	}
	cert, err := h.certs.CertRequest(r.Context(), req.CSR, req.User)
	if err != nil {
		var ipaErr *ipa.Error
		if errors.As(err, &ipaErr) {
			h.writeAPIError(w, http.StatusBadRequest, "The CSR could not be signed", map[string]any{
				"server_message": ipaErr.Message,
			})
			return
		}
		h.writeError(w, r, err)
		return
	}
	h.writeCert(w, r, cert)
}

func (h *Handler) handleGetCert(w http.ResponseWriter, r *http.Request) {
	if h.certs == nil {
		h.writeAPIError(w, http.StatusServiceUnavailable, "Certificate API is not configured", nil)
		return
	}
	serialNumber, err := strconv.Atoi(chi.URLParam(r, "serial_number"))
	if err != nil {
		h.writeAPIError(w, http.StatusNotFound, "Certificate not found", nil)
		return
	}
	cert, err := h.certs.CertShow(r.Context(), serialNumber)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeCert(w, r, cert)
}

func (h *Handler) writeCert(w http.ResponseWriter, r *http.Request, cert ipa.Cert) {
	if serial, ok := cert["serial_number"]; ok {
		cert["uri"] = certURI(r, serial)
	}
	h.writeResult(w, cert, nil)
}
