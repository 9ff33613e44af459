package threeds_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shopkit/shopkit-payments/internal/domain"
	"github.com/shopkit/shopkit-payments/internal/threeds"
)

func TestClassify_Authorized(t *testing.T) {
	attempt := testAttempt(cartOf("1.00", 2))
	outcome := threeds.Classify(domain.ResponseFields{"responseCode": "0"}, attempt)
	require.Equal(t, threeds.OutcomeAuthorized, outcome.Kind)
}

func TestClassify_ChallengeRequired(t *testing.T) {
	attempt := testAttempt(cartOf("1.00", 2))
	outcome := threeds.Classify(domain.ResponseFields{
		"responseCode":           "65802",
		"threeDSRef":             "abc",
		"threeDSURL":             "https://acs.example/x",
		"threeDSRequest[creq]":   "token",
		"threeDSRequest[someId]": "42",
	}, attempt)

	require.Equal(t, threeds.OutcomeChallengeRequired, outcome.Kind)
	require.Equal(t, "abc", outcome.ThreeDSRef)
	require.NotNil(t, outcome.Challenge)
	require.Equal(t, "https://acs.example/x", outcome.Challenge.ACSURL)
	require.Equal(t, map[string]string{"creq": "token", "someId": "42"}, outcome.Challenge.Fields)
}

func TestClassify_ChallengeACSURLFallback(t *testing.T) {
	attempt := testAttempt(cartOf("1.00", 2))
	outcome := threeds.Classify(domain.ResponseFields{
		"responseCode": "65802",
		"acsURL":       "https://acs.example/alt",
	}, attempt)
	require.Equal(t, "https://acs.example/alt", outcome.Challenge.ACSURL)
}

func TestClassify_MethodPingFields(t *testing.T) {
	attempt := testAttempt(cartOf("1.00", 2))
	outcome := threeds.Classify(domain.ResponseFields{
		"responseCode":         "65802",
		"threeDSURL":           "https://acs.example/x",
		"threeDSMethodURL":     "https://acs.example/method",
		"threeDSMethodData":    "blob",
		"threeDSRequest[creq]": "token",
	}, attempt)

	require.Equal(t, "https://acs.example/method", outcome.Challenge.MethodURL)
	require.Equal(t, "blob", outcome.Challenge.MethodData)
	// Method fields never leak into the challenge form.
	require.Equal(t, map[string]string{"creq": "token"}, outcome.Challenge.Fields)
}

func TestClassify_StoredReferenceWins(t *testing.T) {
	// A duplicate 65802 delivery must not leave the attempt with a second,
	// divergent challenge reference.
	attempt := testAttempt(cartOf("1.00", 2))
	attempt.ThreeDSRef = "first"

	outcome := threeds.Classify(domain.ResponseFields{
		"responseCode": "65802",
		"threeDSRef":   "second",
		"threeDSURL":   "https://acs.example/x",
	}, attempt)

	require.Equal(t, "first", outcome.ThreeDSRef)
}

func TestClassify_DeclinedCarriesVerdictVerbatim(t *testing.T) {
	attempt := testAttempt(cartOf("1.00", 2))
	outcome := threeds.Classify(domain.ResponseFields{
		"responseCode":    "5",
		"responseMessage": "CARD DECLINED",
	}, attempt)

	require.Equal(t, threeds.OutcomeDeclined, outcome.Kind)
	require.Equal(t, "5", outcome.Code)
	require.Equal(t, "CARD DECLINED", outcome.Message)
}
