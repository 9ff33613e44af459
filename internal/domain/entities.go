// Package domain contains the core business entities and interfaces for the
// 3-D Secure payment service. This is the innermost layer of the Clean
// Architecture - it has no dependencies on external frameworks or
// infrastructure.
package domain

import "github.com/shopspring/decimal"

// FlowState tracks how far a payment attempt has progressed through the
// 3-D Secure flow. Authorized and Declined are absorbing terminal states.
type FlowState string

const (
	StateCreated                 FlowState = "created"
	StateAwaitingBrowserInfo     FlowState = "awaiting_browser_info"
	StateAwaitingGatewayAuth     FlowState = "awaiting_gateway_auth"
	StateChallengeIssued         FlowState = "challenge_issued"
	StateAwaitingChallengeResult FlowState = "awaiting_challenge_result"
	StateAuthorized              FlowState = "authorized"
	StateDeclined                FlowState = "declined"
)

// Terminal reports whether no further gateway interaction is allowed for an
// attempt in this state.
func (s FlowState) Terminal() bool {
	return s == StateAuthorized || s == StateDeclined
}

// CartItem is one line of the checkout cart. Price is in major currency
// units (pounds, not pence).
type CartItem struct {
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// Card holds the raw card details captured at checkout. Cleared from the
// attempt as soon as the gateway authorizes.
type Card struct {
	Number      string `json:"number"`
	ExpiryMonth int    `json:"expiryMonth"`
	ExpiryYear  int    `json:"expiryYear"`
	CVV         string `json:"cvv"`
}

// Customer holds the billing details submitted with the card.
type Customer struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	PostCode string `json:"postCode"`
}

// PaymentAttempt is the single in-flight payment owned by one browser
// session. TransactionUnique is generated once when the attempt is created
// and reused unchanged on every gateway call for the attempt. ThreeDSRef is
// set at most once, when the gateway first asks for a challenge.
type PaymentAttempt struct {
	AttemptID         string
	Cart              []CartItem
	Card              Card
	Customer          Customer
	TransactionUnique string
	ThreeDSRef        string
	State             FlowState

	// Challenge is kept so a duplicate submission can be answered with the
	// already issued challenge instead of a second gateway call.
	Challenge *Challenge

	// Populated when the attempt reaches a terminal state.
	DeclineCode    string
	DeclineMessage string
	Receipt        *Receipt
}

// Receipt carries the identifiers retained for the downstream order
// confirmation after the card details have been scrubbed.
type Receipt struct {
	TransactionUnique string
	AmountMinor       int64
	CustomerName      string
	CustomerEmail     string
	Cart              []CartItem
}

// Challenge is the data contract consumed by the challenge renderer: the
// ACS destination, the form fields to submit to it, and the optional silent
// method ping issued alongside.
type Challenge struct {
	ACSURL     string
	Fields     map[string]string
	MethodURL  string
	MethodData string
}

// ResponseFields is the flat field set returned by the gateway's direct API.
type ResponseFields map[string]string

// Code returns the gateway response code, empty if absent.
func (f ResponseFields) Code() string { return f["responseCode"] }

// Message returns the human-readable gateway response message.
func (f ResponseFields) Message() string { return f["responseMessage"] }
