package threeds

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/shopkit/shopkit-payments/internal/domain"
	"github.com/shopkit/shopkit-payments/internal/session"
)

// Service orchestrates one payment attempt through the 3-D Secure flow. It
// owns the state transitions; the session store serializes them per attempt,
// and the gateway client is the only suspension point.
type Service struct {
	store   *session.Store
	gateway domain.GatewayClient
	builder *FieldBuilder
}

// NewService creates the orchestration service with its dependencies.
func NewService(store *session.Store, gateway domain.GatewayClient, builder *FieldBuilder) *Service {
	return &Service{
		store:   store,
		gateway: gateway,
		builder: builder,
	}
}

// InitRequest carries the checkout submission that opens a payment attempt.
type InitRequest struct {
	Cart     []domain.CartItem
	Card     domain.Card
	Customer domain.Customer
}

// InitAttempt validates the submission and stores a fresh attempt for the
// session. A non-empty sessionID reuses the browser's session (replacing any
// earlier attempt wholesale, with a new transactionUnique); otherwise a new
// session is created. Returns the session id to hand back as the cookie.
func (s *Service) InitAttempt(sessionID string, req InitRequest) (string, error) {
	if err := validateInit(req); err != nil {
		return "", err
	}

	attempt := &domain.PaymentAttempt{
		AttemptID:         uuid.New().String(),
		Cart:              req.Cart,
		Card:              req.Card,
		Customer:          req.Customer,
		TransactionUnique: uuid.New().String(),
		State:             domain.StateAwaitingBrowserInfo,
	}

	if sessionID == "" {
		sessionID = s.store.Create(attempt)
	} else {
		s.store.Put(sessionID, attempt)
	}
	log.Printf("Attempt %s created for session %s (tx %s)",
		attempt.AttemptID, sessionID, attempt.TransactionUnique)
	return sessionID, nil
}

// Reseed updates the cart and, optionally, the card of an existing attempt
// from query parameters. A missing or expired session is left alone: the
// browser-info page still renders and the later submission surfaces the
// session error.
func (s *Service) Reseed(sessionID string, cart []domain.CartItem, card *domain.Card) {
	if sessionID == "" {
		return
	}
	err := s.store.Update(sessionID, func(a *domain.PaymentAttempt) error {
		if a.State != domain.StateAwaitingBrowserInfo {
			return nil
		}
		if cart != nil {
			a.Cart = cart
		}
		if card != nil {
			a.Card = *card
		}
		return nil
	})
	if err != nil {
		log.Printf("Reseed skipped for session %s: %v", sessionID, err)
	}
}

// StepKind identifies what the caller should present after one flow step.
type StepKind int

const (
	StepMethodAck StepKind = iota
	StepChallenge
	StepAuthorized
	StepDeclined
)

// StepResult is the outward-facing result of one inbound 3DS POST.
type StepResult struct {
	Kind      StepKind
	Challenge *domain.Challenge
	Receipt   *domain.Receipt
	Code      string
	Message   string
}

// HandleCallback processes one inbound POST of the 3DS flow. The payload
// shape is resolved once; the step then runs under the attempt's session
// lock, so for one attempt the browser-info round-trip fully settles before
// a challenge result is processed, and duplicates observe the advanced state
// and short-circuit without a second gateway call.
func (s *Service) HandleCallback(ctx context.Context, sessionID string, form map[string]string, pageURL, remoteAddr string) (*StepResult, error) {
	payload, err := DecodePayload(form)
	if err != nil {
		return nil, err
	}

	// The issuer's silent fingerprint ping is acknowledged with an empty
	// response and must never reach the gateway.
	if payload.Kind == PayloadMethodPing {
		return &StepResult{Kind: StepMethodAck}, nil
	}

	var result *StepResult
	var clearSession bool
	err = s.store.Update(sessionID, func(a *domain.PaymentAttempt) error {
		switch payload.Kind {
		case PayloadBrowserInfo:
			result, err = s.browserInfoStep(ctx, a, payload.BrowserInfo, pageURL, remoteAddr)
		case PayloadChallengeResult:
			result, err = s.challengeResultStep(ctx, a, payload.ChallengeResult)
		}
		clearSession = a.State == domain.StateAuthorized
		return err
	})
	if err != nil {
		return nil, err
	}
	// Authorized is terminal and the receipt has been handed over exactly
	// once; drop the attempt entirely.
	if clearSession {
		s.store.Clear(sessionID)
	}
	return result, nil
}

// browserInfoStep runs the initial SALE round-trip. Only valid while the
// attempt awaits browser info; any later duplicate is a no-op that replays
// the stored outcome.
func (s *Service) browserInfoStep(ctx context.Context, a *domain.PaymentAttempt, info map[string]string, pageURL, remoteAddr string) (*StepResult, error) {
	if a.State != domain.StateCreated && a.State != domain.StateAwaitingBrowserInfo {
		return s.replay(a)
	}

	fields, err := s.builder.BuildAuthFields(a, pageURL, remoteAddr, info)
	if err != nil {
		return nil, err
	}

	a.State = domain.StateAwaitingGatewayAuth
	resp, err := s.gateway.DirectRequest(ctx, fields)
	if err != nil {
		return nil, s.gatewayFailure(a, err)
	}
	return s.apply(a, Classify(resp, a))
}

// challengeResultStep runs the 3DS continuation round-trip after the issuer
// challenge completes.
func (s *Service) challengeResultStep(ctx context.Context, a *domain.PaymentAttempt, result map[string]string) (*StepResult, error) {
	if a.State.Terminal() {
		return s.replay(a)
	}

	fields, err := s.builder.BuildChallengeFields(a, result)
	if err != nil {
		return nil, err
	}

	resp, err := s.gateway.DirectRequest(ctx, fields)
	if err != nil {
		return nil, s.gatewayFailure(a, err)
	}
	return s.apply(a, Classify(resp, a))
}

// apply advances the attempt per the classifier outcome and builds the
// step result.
func (s *Service) apply(a *domain.PaymentAttempt, outcome Outcome) (*StepResult, error) {
	a.ThreeDSRef = outcome.ThreeDSRef

	switch outcome.Kind {
	case OutcomeChallengeRequired:
		a.Challenge = outcome.Challenge
		// ChallengeIssued is transient: the challenge page renders within
		// this same critical section, so the stored state any later request
		// observes is already AwaitingChallengeResult.
		a.State = domain.StateAwaitingChallengeResult
		log.Printf("Attempt %s: challenge issued (ref %s)", a.AttemptID, a.ThreeDSRef)
		return &StepResult{Kind: StepChallenge, Challenge: outcome.Challenge}, nil

	case OutcomeAuthorized:
		receipt := &domain.Receipt{
			TransactionUnique: a.TransactionUnique,
			AmountMinor:       CartAmountMinor(a.Cart),
			CustomerName:      a.Customer.Name,
			CustomerEmail:     a.Customer.Email,
			Cart:              a.Cart,
		}
		// PCI hygiene: scrub the card the moment the gateway authorizes.
		a.Card = domain.Card{}
		a.Receipt = receipt
		a.State = domain.StateAuthorized
		log.Printf("Attempt %s: authorized (tx %s)", a.AttemptID, a.TransactionUnique)
		return &StepResult{Kind: StepAuthorized, Receipt: receipt}, nil

	default:
		a.Card = domain.Card{}
		a.DeclineCode = outcome.Code
		a.DeclineMessage = outcome.Message
		a.State = domain.StateDeclined
		log.Printf("Attempt %s: declined code=%s message=%q",
			a.AttemptID, outcome.Code, outcome.Message)
		return &StepResult{Kind: StepDeclined, Code: outcome.Code, Message: outcome.Message}, nil
	}
}

// replay answers a duplicate submission from stored state without touching
// the gateway.
func (s *Service) replay(a *domain.PaymentAttempt) (*StepResult, error) {
	switch a.State {
	case domain.StateAwaitingChallengeResult:
		return &StepResult{Kind: StepChallenge, Challenge: a.Challenge}, nil
	case domain.StateAuthorized:
		return &StepResult{Kind: StepAuthorized, Receipt: a.Receipt}, nil
	default:
		return &StepResult{Kind: StepDeclined, Code: a.DeclineCode, Message: a.DeclineMessage}, nil
	}
}

// gatewayFailure converts a failed gateway call into a whole terminal
// transition. The attempt is never left between states: the user sees a
// failure page and a fresh /init starts cleanly.
func (s *Service) gatewayFailure(a *domain.PaymentAttempt, err error) error {
	log.Printf("Attempt %s: gateway failure: %v", a.AttemptID, err)
	a.Card = domain.Card{}
	a.DeclineCode = ""
	a.DeclineMessage = "payment could not be processed"
	a.State = domain.StateDeclined
	return domain.NewPaymentError(domain.ErrGateway,
		"payment gateway is unavailable", "GATEWAY_ERROR")
}

// validateInit rejects a checkout submission with missing card details
// before an attempt is created.
func validateInit(req InitRequest) error {
	switch {
	case req.Card.Number == "":
		return domain.NewPaymentError(domain.ErrValidation, "cardNumber is required", "VALIDATION_ERROR")
	case req.Card.ExpiryMonth < 1 || req.Card.ExpiryMonth > 12:
		return domain.NewPaymentError(domain.ErrValidation, "cardExpiryMonth is invalid", "VALIDATION_ERROR")
	case req.Card.ExpiryYear <= 0:
		return domain.NewPaymentError(domain.ErrValidation, "cardExpiryYear is invalid", "VALIDATION_ERROR")
	case req.Card.CVV == "":
		return domain.NewPaymentError(domain.ErrValidation, "cardCVV is required", "VALIDATION_ERROR")
	}
	return nil
}
