package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/mtaadao/treasury/cmd/treasury/service"
)

// MultisigHandler handles withdrawal proposal requests
type MultisigHandler struct {
	multisig *service.MultisigService
}

// NewMultisigHandler creates a new multisig handler
func NewMultisigHandler(multisig *service.MultisigService) *MultisigHandler {
	return &MultisigHandler{
		multisig: multisig,
	}
}

// ProposeRequest is the body for proposing a withdrawal
type ProposeRequest struct {
	ProposerID         string          `json:"proposer_id"`
	Recipient          string          `json:"recipient"`
	Amount             decimal.Decimal `json:"amount"`
	Purpose            string          `json:"purpose"`
	RequiredSignatures int             `json:"required_signatures"`
}

// SignRequest is the body for signing a proposal
type SignRequest struct {
	SignerID string `json:"signer_id"`
}

// RejectRequest is the body for rejecting a proposal
type RejectRequest struct {
	ActorID string `json:"actor_id"`
}

// Propose creates a withdrawal proposal
// POST /api/v1/funds/:fundId/multisig/propose
func (h *MultisigHandler) Propose(c echo.Context) error {
	fundID, err := uuid.Parse(c.Param("fundId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid fund id")
	}

	var req ProposeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ProposerID == "" || req.Recipient == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "proposer_id and recipient are required")
	}

	proposal, err := h.multisig.Propose(c.Request().Context(), service.ProposeInput{
		FundID:             fundID,
		ProposerID:         req.ProposerID,
		Recipient:          req.Recipient,
		Amount:             req.Amount,
		Purpose:            req.Purpose,
		RequiredSignatures: req.RequiredSignatures,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, proposal)
}

// Sign records an approval against a proposal
// POST /api/v1/funds/:fundId/multisig/:proposalId/sign
func (h *MultisigHandler) Sign(c echo.Context) error {
	proposalID, err := uuid.Parse(c.Param("proposalId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid proposal id")
	}

	var req SignRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.SignerID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "signer_id is required")
	}

	result, err := h.multisig.Sign(c.Request().Context(), proposalID, req.SignerID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, result)
}

// Reject moves a pending proposal to the terminal rejected state
// POST /api/v1/funds/:fundId/multisig/:proposalId/reject
func (h *MultisigHandler) Reject(c echo.Context) error {
	proposalID, err := uuid.Parse(c.Param("proposalId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid proposal id")
	}

	var req RejectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ActorID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "actor_id is required")
	}

	proposal, err := h.multisig.Reject(c.Request().Context(), proposalID, req.ActorID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, proposal)
}

// ListPending returns the fund's non-terminal proposals with signature counts
// GET /api/v1/funds/:fundId/multisig/pending
func (h *MultisigHandler) ListPending(c echo.Context) error {
	fundID, err := uuid.Parse(c.Param("fundId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid fund id")
	}

	proposals, err := h.multisig.ListPending(c.Request().Context(), fundID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"proposals": proposals,
	})
}
