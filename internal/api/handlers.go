// Package api contains the HTTP handlers, routing, and page rendering for
// the 3-D Secure payment service.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shopkit/shopkit-payments/internal/domain"
	"github.com/shopkit/shopkit-payments/internal/threeds"
)

// Handler contains the HTTP handlers for the payment flow.
type Handler struct {
	service    *threeds.Service
	publicURL  string
	successURL string
	sessionTTL time.Duration
}

// NewHandler creates a new API handler with the orchestration service.
func NewHandler(service *threeds.Service, publicURL, successURL string, sessionTTL time.Duration) *Handler {
	return &Handler{
		service:    service,
		publicURL:  publicURL,
		successURL: successURL,
		sessionTTL: sessionTTL,
	}
}

// initRequest represents the body of the init endpoint. The checkout client
// posts either an urlencoded form (cart as a JSON string) or a JSON body
// (cart as an array).
type initRequest struct {
	Cart             string          `form:"cart" json:"-"`
	CartItems        json.RawMessage `form:"-" json:"cart"`
	CardNumber       string          `form:"cardNumber" json:"cardNumber"`
	CardExpiryMonth  string          `form:"cardExpiryMonth" json:"cardExpiryMonth"`
	CardExpiryYear   string          `form:"cardExpiryYear" json:"cardExpiryYear"`
	CardCVV          string          `form:"cardCVV" json:"cardCVV"`
	CustomerName     string          `form:"customerName" json:"customerName"`
	CustomerEmail    string          `form:"customerEmail" json:"customerEmail"`
	CustomerAddress  string          `form:"customerAddress" json:"customerAddress"`
	CustomerPostCode string          `form:"customerPostCode" json:"customerPostCode"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

// Init handles POST /init: stashes the cart, card, and customer details in a
// fresh payment attempt and replies with the browser-info auto-submit page.
func (h *Handler) Init(c *gin.Context) {
	var req initRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid request body: " + err.Error(),
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	raw := []byte(req.Cart)
	if len(req.CartItems) > 0 {
		raw = req.CartItems
	}
	cart, err := parseCart(raw)
	if err != nil {
		// An unparseable cart still renders the browser-info page; the
		// empty cart fails validation before any gateway call.
		log.Printf("Init: invalid cart JSON: %v", err)
		cart = nil
	}

	sid, err := h.service.InitAttempt(sessionID(c), threeds.InitRequest{
		Cart: cart,
		Card: domain.Card{
			Number:      req.CardNumber,
			ExpiryMonth: atoi(req.CardExpiryMonth),
			ExpiryYear:  atoi(req.CardExpiryYear),
			CVV:         req.CardCVV,
		},
		Customer: domain.Customer{
			Name:     req.CustomerName,
			Email:    req.CustomerEmail,
			Address:  req.CustomerAddress,
			PostCode: req.CustomerPostCode,
		},
	})
	if err != nil {
		var paymentErr *domain.PaymentError
		if errors.As(err, &paymentErr) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Success: false,
				Error:   paymentErr.Message,
				Code:    paymentErr.Code,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Success: false,
			Error:   "Internal server error",
			Code:    "INTERNAL_ERROR",
		})
		return
	}

	setSessionCookie(c, sid, h.sessionTTL)
	renderBrowserInfo(c, h.publicURL)
}

// BrowserInfoPage handles any non-POST request: it may re-seed the attempt
// from query parameters, then renders the browser-info auto-submit page.
func (h *Handler) BrowserInfoPage(c *gin.Context) {
	var cart []domain.CartItem
	if raw := c.Query("cart"); raw != "" {
		parsed, err := parseCart([]byte(raw))
		if err != nil {
			log.Printf("BrowserInfoPage: invalid cart JSON: %v", err)
		} else {
			cart = parsed
		}
	}
	var card *domain.Card
	if number := c.Query("cardNumber"); number != "" {
		card = &domain.Card{
			Number:      number,
			ExpiryMonth: atoi(c.Query("cardExpiryMonth")),
			ExpiryYear:  atoi(c.Query("cardExpiryYear")),
			CVV:         c.Query("cardCVV"),
		}
	}
	if cart != nil || card != nil {
		h.service.Reseed(sessionID(c), cart, card)
	}

	renderBrowserInfo(c, h.publicURL)
}

// Callback handles POST / - the single return leg of the 3DS flow. The
// payload shape (browser info, method ping, or challenge result) is resolved
// by the service; this handler only presents the step result.
func (h *Handler) Callback(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		renderFailure(c, http.StatusBadRequest, "", "could not read payment response")
		return
	}
	form := make(map[string]string, len(c.Request.PostForm))
	for k, vs := range c.Request.PostForm {
		if len(vs) > 0 {
			form[k] = vs[0]
		}
	}

	result, err := h.service.HandleCallback(c.Request.Context(), sessionID(c), form, h.publicURL, c.ClientIP())
	if err != nil {
		h.handleFlowError(c, err)
		return
	}

	switch result.Kind {
	case threeds.StepMethodAck:
		// The issuer's method ping wants nothing back.
		c.Status(http.StatusOK)
	case threeds.StepChallenge:
		renderChallenge(c, result.Challenge)
	case threeds.StepAuthorized:
		h.renderSuccess(c, result.Receipt)
	case threeds.StepDeclined:
		renderFailure(c, http.StatusOK, result.Code, result.Message)
	}
}

// Fallback serves any path the router has no explicit route for, mirroring
// the catch-all behavior the ACS redirect depends on.
func (h *Handler) Fallback(c *gin.Context) {
	if c.Request.Method == http.MethodPost {
		h.Callback(c)
		return
	}
	h.BrowserInfoPage(c)
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "shopkit-payments",
	})
}

// renderSuccess hands the confirmed order off to the merchant backend.
func (h *Handler) renderSuccess(c *gin.Context, receipt *domain.Receipt) {
	items, err := json.Marshal(receipt.Cart)
	if err != nil {
		items = []byte("[]")
	}
	response, err := json.Marshal(gin.H{
		"status":            "success",
		"transactionUnique": receipt.TransactionUnique,
		"amount":            receipt.AmountMinor,
		"customerName":      receipt.CustomerName,
		"customerEmail":     receipt.CustomerEmail,
		"timestamp":         time.Now().UnixMilli(),
	})
	if err != nil {
		response = []byte("{}")
	}
	writePage(c, http.StatusOK, successPage, successData{
		HandoffURL: h.successURL,
		Items:      string(items),
		Response:   string(response),
	})
}

// handleFlowError maps domain errors to a user-visible failure page. No
// error crosses the HTTP boundary unhandled, and no message echoes card
// data.
func (h *Handler) handleFlowError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrGateway):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrMissingReference),
		errors.Is(err, domain.ErrUnrecognizedPayload),
		errors.Is(err, domain.ErrSessionNotFound):
		status = http.StatusBadRequest
	}

	message := "payment could not be processed"
	code := ""
	var paymentErr *domain.PaymentError
	if errors.As(err, &paymentErr) {
		message = paymentErr.Message
		code = paymentErr.Code
	} else if errors.Is(err, domain.ErrSessionNotFound) {
		message = "payment session has expired"
	}
	renderFailure(c, status, code, message)
}

// parseCart decodes a cart that may arrive as a JSON array or as a JSON
// string wrapping one.
func parseCart(raw []byte) ([]domain.CartItem, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var cart []domain.CartItem
	if err := json.Unmarshal(raw, &cart); err == nil {
		return cart, nil
	}
	var nested string
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(nested), &cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
