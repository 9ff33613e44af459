package threeds

import (
	"strings"

	"github.com/shopkit/shopkit-payments/internal/domain"
)

// Gateway response codes with dedicated handling. Anything else is a decline.
const (
	codeAuthorized        = "0"
	codeChallengeRequired = "65802"
)

// challengePrefix namespaces the fields the gateway wants submitted to the
// ACS challenge form.
const challengePrefix = "threeDSRequest["

// OutcomeKind is the three-way verdict of the response classifier.
type OutcomeKind int

const (
	OutcomeDeclined OutcomeKind = iota
	OutcomeAuthorized
	OutcomeChallengeRequired
)

// Outcome is the classifier's interpretation of one gateway response.
type Outcome struct {
	Kind OutcomeKind

	// ThreeDSRef is the reference the attempt should carry forward. When the
	// attempt already holds one, a newly received reference never overwrites
	// it: duplicate delivery of a 65802 must not leave the attempt with two
	// divergent challenge references.
	ThreeDSRef string

	// Challenge is set for OutcomeChallengeRequired.
	Challenge *domain.Challenge

	// Code and Message carry the gateway verdict verbatim for display on
	// OutcomeDeclined.
	Code    string
	Message string
}

// Classify interprets one gateway response for the given attempt. Pure: it
// inspects but never mutates the attempt; applying the outcome is the
// orchestration layer's job.
func Classify(resp domain.ResponseFields, attempt *domain.PaymentAttempt) Outcome {
	switch resp.Code() {
	case codeChallengeRequired:
		ref := attempt.ThreeDSRef
		if ref == "" {
			ref = resp["threeDSRef"]
		}
		return Outcome{
			Kind:       OutcomeChallengeRequired,
			ThreeDSRef: ref,
			Challenge:  extractChallenge(resp),
		}
	case codeAuthorized:
		return Outcome{Kind: OutcomeAuthorized, ThreeDSRef: attempt.ThreeDSRef}
	default:
		return Outcome{
			Kind:       OutcomeDeclined,
			ThreeDSRef: attempt.ThreeDSRef,
			Code:       resp.Code(),
			Message:    resp.Message(),
		}
	}
}

// extractChallenge pulls the ACS destination, the optional issuer method
// ping, and the challenge form fields out of a 65802 response. Gateways
// differ on whether the method fields arrive top-level or namespaced, so
// both spellings are accepted.
func extractChallenge(resp domain.ResponseFields) *domain.Challenge {
	acsURL := resp["threeDSURL"]
	if acsURL == "" {
		acsURL = resp["acsURL"]
	}

	methodURL := resp["threeDSMethodURL"]
	if methodURL == "" {
		methodURL = resp[challengePrefix+"threeDSMethodURL]"]
	}
	methodData := resp["threeDSMethodData"]
	if methodData == "" {
		methodData = resp[challengePrefix+"threeDSMethodData]"]
	}

	fields := make(map[string]string)
	for k, v := range resp {
		if !strings.HasPrefix(k, challengePrefix) || !strings.HasSuffix(k, "]") {
			continue
		}
		name := k[len(challengePrefix) : len(k)-1]
		if name == "threeDSMethodURL" || name == "threeDSMethodData" {
			continue
		}
		fields[name] = v
	}

	return &domain.Challenge{
		ACSURL:     acsURL,
		Fields:     fields,
		MethodURL:  methodURL,
		MethodData: methodData,
	}
}
