package threeds

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/shopkit/shopkit-payments/internal/domain"
)

// MerchantProfile holds the merchant constants stamped onto every gateway
// request.
type MerchantProfile struct {
	MerchantID           string
	CountryCode          string
	CurrencyCode         string
	MerchantCategoryCode string
	OrderRef             string
}

// FieldBuilder is the pure transformation from attempt state to the outbound
// gateway field set, for both the initial SALE and the 3DS continuation call.
type FieldBuilder struct {
	profile MerchantProfile
}

// NewFieldBuilder creates a field builder for the merchant profile.
func NewFieldBuilder(profile MerchantProfile) *FieldBuilder {
	return &FieldBuilder{profile: profile}
}

// CartAmountMinor computes round(sum(price*quantity) * 100) in minor
// currency units. Decimal arithmetic keeps 19.99-style prices exact.
func CartAmountMinor(cart []domain.CartItem) int64 {
	total := decimal.Zero
	for _, item := range cart {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// BuildAuthFields composes the initial SALE request. browserInfo carries the
// device attributes already stripped of their browserInfo[...] namespace;
// pageURL and remoteAddr come from the inbound request. Fails with
// domain.ErrValidation before any network call if the cart is empty or the
// computed amount is not positive, so a bad cart can never reach the gateway
// as a zero-value authorization.
func (b *FieldBuilder) BuildAuthFields(attempt *domain.PaymentAttempt, pageURL, remoteAddr string, browserInfo map[string]string) (map[string]string, error) {
	if len(attempt.Cart) == 0 {
		return nil, domain.NewPaymentError(domain.ErrValidation,
			"cart is empty", "VALIDATION_ERROR")
	}
	amount := CartAmountMinor(attempt.Cart)
	if amount <= 0 {
		return nil, domain.NewPaymentError(domain.ErrValidation,
			"cart total must be greater than 0", "VALIDATION_ERROR")
	}

	fields := map[string]string{
		"merchantID":           b.profile.MerchantID,
		"action":               "SALE",
		"type":                 "1",
		"transactionUnique":    attempt.TransactionUnique,
		"countryCode":          b.profile.CountryCode,
		"currencyCode":         b.profile.CurrencyCode,
		"amount":               strconv.FormatInt(amount, 10),
		"cardNumber":           attempt.Card.Number,
		"cardExpiryMonth":      strconv.Itoa(attempt.Card.ExpiryMonth),
		"cardExpiryYear":       strconv.Itoa(attempt.Card.ExpiryYear),
		"cardCVV":              attempt.Card.CVV,
		"customerName":         attempt.Customer.Name,
		"customerEmail":        attempt.Customer.Email,
		"customerAddress":      attempt.Customer.Address,
		"customerPostCode":     attempt.Customer.PostCode,
		"orderRef":             b.profile.OrderRef,
		"remoteAddress":        remoteAddr,
		"merchantCategoryCode": b.profile.MerchantCategoryCode,
		"threeDSVersion":       "2",
		"threeDSRedirectURL":   pageURL + "&acs=1",
	}
	for k, v := range browserInfo {
		fields[k] = v
	}
	return fields, nil
}

// BuildChallengeFields composes the 3DS continuation call after the issuer
// challenge completes. The stored threeDSRef correlates the continuation
// with the original authorization; without it the gateway cannot resume the
// transaction, so a missing reference fails with domain.ErrMissingReference
// before any network call.
func (b *FieldBuilder) BuildChallengeFields(attempt *domain.PaymentAttempt, result map[string]string) (map[string]string, error) {
	if attempt.ThreeDSRef == "" {
		return nil, domain.NewPaymentError(domain.ErrMissingReference,
			"challenge result received with no stored 3DS reference", "MISSING_REFERENCE")
	}
	return map[string]string{
		"action":          "SALE",
		"merchantID":      b.profile.MerchantID,
		"threeDSRef":      attempt.ThreeDSRef,
		"threeDSResponse": EncodeChallengeResponse(result),
	}, nil
}
