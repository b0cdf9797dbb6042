package http

import (
	"log/slog"
	"net/http"

	"carenote/internal/core"
	"carenote/internal/identity"
	applog "carenote/internal/log"
)

type identityResponse struct {
	DisplayID string        `json:"displayId"`
	Meta      identity.Meta `json:"meta"`
}

type otpRequestBody struct {
	Phone string `json:"phone"`
}

type otpVerifyBody struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type otpVerifyResponse struct {
	Verified    bool   `json:"verified"`
	MaskedPhone string `json:"maskedPhone"`
}

func (s *Server) handleIdentity(w http.ResponseWriter, r *http.Request) {
	displayID, err := s.identity.DisplayID(r.Context())
	if err != nil {
		applog.LogError(r.Context(), "Failed to resolve display id", err, applog.ComponentIdentity, "display_id")
		writeError(w, http.StatusServiceUnavailable, "identity unavailable")
		return
	}

	writeJSON(w, http.StatusOK, identityResponse{
		DisplayID: displayID,
		Meta:      s.identity.GetMeta(r.Context()),
	})
}

func (s *Server) handleOTPRequest(w http.ResponseWriter, r *http.Request) {
	var req otpRequestBody
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.verifier.RequestCode(r.Context(), sanitizeInput(req.Phone)); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

func (s *Server) handleOTPVerify(w http.ResponseWriter, r *http.Request) {
	var req otpVerifyBody
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.verifier.VerifyCode(r.Context(), sanitizeInput(req.Phone), sanitizeInput(req.Code))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	verified := true
	now := core.Today()
	if _, err := s.identity.SaveMeta(r.Context(), identity.MetaPatch{
		PhoneVerified:       &verified,
		VerifiedPhoneMasked: &result.MaskedPhone,
		VerifiedAt:          &now,
	}); err != nil {
		applog.LogError(r.Context(), "Failed to persist verification", err, applog.ComponentVerify, "save_meta")
		writeError(w, http.StatusServiceUnavailable, "could not persist verification")
		return
	}

	slog.InfoContext(r.Context(), "Phone verified", "masked_phone", result.MaskedPhone)

	writeJSON(w, http.StatusOK, otpVerifyResponse{
		Verified:    true,
		MaskedPhone: result.MaskedPhone,
	})
}
