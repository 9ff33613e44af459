package threeds_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/shopkit/shopkit-payments/internal/domain"
	"github.com/shopkit/shopkit-payments/internal/threeds"
)

func testBuilder() *threeds.FieldBuilder {
	return threeds.NewFieldBuilder(threeds.MerchantProfile{
		MerchantID:           "100856",
		CountryCode:          "826",
		CurrencyCode:         "826",
		MerchantCategoryCode: "5411",
		OrderRef:             "Test purchase",
	})
}

func cartOf(price string, quantity int) []domain.CartItem {
	return []domain.CartItem{{Price: decimal.RequireFromString(price), Quantity: quantity}}
}

func testAttempt(cart []domain.CartItem) *domain.PaymentAttempt {
	return &domain.PaymentAttempt{
		AttemptID:         "attempt-1",
		Cart:              cart,
		Card:              domain.Card{Number: "4012001037141112", ExpiryMonth: 12, ExpiryYear: 28, CVV: "083"},
		Customer:          domain.Customer{Name: "Test Customer", Email: "test@test.com", Address: "16 Test Street", PostCode: "TE15 5ST"},
		TransactionUnique: "tx-1",
		State:             domain.StateAwaitingBrowserInfo,
	}
}

func TestCartAmountMinor(t *testing.T) {
	cases := []struct {
		name string
		cart []domain.CartItem
		want int64
	}{
		{"one pound twice", cartOf("1.00", 2), 200},
		{"pennies stay exact", cartOf("19.99", 3), 5997},
		{"mixed lines", append(cartOf("0.01", 1), cartOf("2.50", 4)...), 1001},
		{"empty", nil, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, threeds.CartAmountMinor(c.cart))
		})
	}
}

func TestBuildAuthFields(t *testing.T) {
	attempt := testAttempt(cartOf("1.00", 2))
	fields, err := testBuilder().BuildAuthFields(attempt, "https://pay.example/", "203.0.113.9", map[string]string{
		"deviceChannel":  "browser",
		"deviceIdentity": "agent",
	})
	require.NoError(t, err)

	require.Equal(t, "200", fields["amount"])
	require.Equal(t, "SALE", fields["action"])
	require.Equal(t, "100856", fields["merchantID"])
	require.Equal(t, "tx-1", fields["transactionUnique"])
	require.Equal(t, "4012001037141112", fields["cardNumber"])
	require.Equal(t, "12", fields["cardExpiryMonth"])
	require.Equal(t, "28", fields["cardExpiryYear"])
	require.Equal(t, "083", fields["cardCVV"])
	require.Equal(t, "2", fields["threeDSVersion"])
	require.Equal(t, "https://pay.example/&acs=1", fields["threeDSRedirectURL"])
	require.Equal(t, "203.0.113.9", fields["remoteAddress"])
	require.Equal(t, "browser", fields["deviceChannel"])
	require.Equal(t, "agent", fields["deviceIdentity"])
}

func TestBuildAuthFields_EmptyCart(t *testing.T) {
	_, err := testBuilder().BuildAuthFields(testAttempt(nil), "https://pay.example/", "", nil)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestBuildAuthFields_ZeroAmount(t *testing.T) {
	_, err := testBuilder().BuildAuthFields(testAttempt(cartOf("0.00", 5)), "https://pay.example/", "", nil)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestBuildChallengeFields(t *testing.T) {
	attempt := testAttempt(cartOf("1.00", 2))
	attempt.ThreeDSRef = "abc"

	fields, err := testBuilder().BuildChallengeFields(attempt, map[string]string{"cres": "xyz"})
	require.NoError(t, err)

	require.Equal(t, "SALE", fields["action"])
	require.Equal(t, "100856", fields["merchantID"])
	require.Equal(t, "abc", fields["threeDSRef"])
	require.Equal(t, threeds.EncodeChallengeResponse(map[string]string{"cres": "xyz"}), fields["threeDSResponse"])
}

func TestBuildChallengeFields_MissingReference(t *testing.T) {
	attempt := testAttempt(cartOf("1.00", 2))

	_, err := testBuilder().BuildChallengeFields(attempt, map[string]string{"cres": "xyz"})
	require.ErrorIs(t, err, domain.ErrMissingReference)
}
