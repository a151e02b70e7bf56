package inbound

import (
	"github.com/shandysiswandi/gorevive/internal/pkg/router"
	"github.com/shandysiswandi/gorevive/internal/recovery/usecase"
)

// HTTPEndpoint exposes HTTP handlers for the password recovery workflow.
type HTTPEndpoint struct {
	uc uc
}

// Start begins a recovery flow for an email address.
// @Summary Start password recovery
// @Description Resolves the account and returns the step-1 session token, payload, and a masked phone for confirmation.
// @Tags Recovery
// @Accept json
// @Produce json
// @Param request body StartRequest true "Recovery start payload"
// @Success 200 {object} router.successResponse{data=StartResponse} "Step-1 envelopes"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Account cannot be recovered"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/recovery/start [post]
func (h *HTTPEndpoint) Start(r *router.Request) (any, error) {
	var req StartRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Start(r.Context(), usecase.StartInput{Email: req.Email})
	if err != nil {
		return nil, err
	}

	return StartResponse{
		SessionToken:     resp.SessionToken,
		SessionSignature: resp.SessionSignature,
		Payload:          resp.Payload,
		PayloadSignature: resp.PayloadSignature,
		MaskedPhone:      resp.MaskedPhone,
		SubjectRef:       resp.SubjectRef,
	}, nil
}

// SendCode dispatches the one-time code and rotates to step-2 envelopes.
// @Summary Send recovery code
// @Description Verifies the step-1 envelopes and the confirmed phone, sends the SMS code, and returns step-2 envelopes.
// @Tags Recovery
// @Accept json
// @Produce json
// @Param request body SendCodeRequest true "Recovery send-code payload"
// @Success 200 {object} router.successResponse{data=SendCodeResponse} "Step-2 envelopes"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Recovery session is invalid or expired"
// @Failure 408 {object} router.errorResponse "Code delivery failed, retry"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/recovery/send-code [post]
func (h *HTTPEndpoint) SendCode(r *router.Request) (any, error) {
	var req SendCodeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.SendCode(r.Context(), usecase.SendCodeInput{
		SessionToken:     req.SessionToken,
		SessionSignature: req.SessionSignature,
		Payload:          req.Payload,
		PayloadSignature: req.PayloadSignature,
		Phone:            req.Phone,
	})
	if err != nil {
		return nil, err
	}

	return SendCodeResponse{
		SessionToken:     resp.SessionToken,
		SessionSignature: resp.SessionSignature,
		Payload:          resp.Payload,
		PayloadSignature: resp.PayloadSignature,
		MaskedPhone:      resp.MaskedPhone,
	}, nil
}

// Complete finishes recovery by verifying the code and setting the new password.
// @Summary Complete password recovery
// @Description Verifies the step-2 envelopes and the SMS code, then updates the account credential.
// @Tags Recovery
// @Accept json
// @Produce json
// @Param request body CompleteRequest true "Recovery completion payload"
// @Success 200 {object} router.successResponse{data=CompleteResponse} "Recovery completed"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid session or code"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/recovery/complete [post]
func (h *HTTPEndpoint) Complete(r *router.Request) (any, error) {
	var req CompleteRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.Complete(r.Context(), usecase.CompleteInput{
		SessionToken:     req.SessionToken,
		SessionSignature: req.SessionSignature,
		Payload:          req.Payload,
		PayloadSignature: req.PayloadSignature,
		Code:             req.Code,
		NewPassword:      req.NewPassword,
		ConfirmPassword:  req.ConfirmPassword,
	}); err != nil {
		return nil, err
	}

	return CompleteResponse{}, nil
}
