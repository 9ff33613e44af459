package threeds

import (
	"strings"

	"github.com/shopkit/shopkit-payments/internal/domain"
)

// Inbound payload namespaces and markers.
const (
	browserInfoPrefix     = "browserInfo["
	challengeResultPrefix = "threeDSResponse["
	methodDataField       = "threeDSMethodData"
	cresField             = "cres"   // 3DS v2 challenge result
	paresField            = "PaRes"  // 3DS v1 challenge result
)

// PayloadKind discriminates the shapes a browser can POST back during the
// 3DS flow.
type PayloadKind int

const (
	PayloadUnknown PayloadKind = iota
	PayloadBrowserInfo
	PayloadMethodPing
	PayloadChallengeResult
)

// InboundPayload is the result of decoding one inbound POST body. The shape
// is resolved exactly once, here at the boundary; downstream code switches on
// Kind and never re-tests key prefixes.
type InboundPayload struct {
	Kind PayloadKind

	// BrowserInfo holds the device attributes with the browserInfo[...]
	// namespace stripped, ready to merge into the SALE field set.
	BrowserInfo map[string]string

	// ChallengeResult holds the ACS result pairs. All three wire shapes
	// (cres, PaRes, threeDSResponse[...]) normalize to this one map, which
	// feeds the continuation-call contract unchanged.
	ChallengeResult map[string]string
}

// DecodePayload discriminates an inbound POST body:
//
//   - one or more browserInfo[...] keys  -> browser-info submission
//   - a threeDSMethodData field          -> issuer method ping (ack only,
//     never a gateway call)
//   - cres, PaRes, or threeDSResponse[...] keys -> challenge result
//
// The method-ping test runs before the challenge-result test: a method ping
// misread as a challenge result would trigger a bogus continuation call.
// Anything else fails with domain.ErrUnrecognizedPayload.
func DecodePayload(form map[string]string) (InboundPayload, error) {
	if anyKeyHasPrefix(form, browserInfoPrefix) {
		info := make(map[string]string)
		for k, v := range form {
			if strings.HasPrefix(k, browserInfoPrefix) && strings.HasSuffix(k, "]") {
				info[k[len(browserInfoPrefix):len(k)-1]] = v
			}
		}
		return InboundPayload{Kind: PayloadBrowserInfo, BrowserInfo: info}, nil
	}

	if _, ok := form[methodDataField]; ok {
		return InboundPayload{Kind: PayloadMethodPing}, nil
	}

	_, hasCres := form[cresField]
	_, hasPaRes := form[paresField]
	if hasCres || hasPaRes || anyKeyHasPrefix(form, challengeResultPrefix) {
		result := make(map[string]string)
		for k, v := range form {
			if strings.HasPrefix(k, challengeResultPrefix) && strings.HasSuffix(k, "]") {
				result[k[len(challengeResultPrefix):len(k)-1]] = v
				continue
			}
			result[k] = v
		}
		return InboundPayload{Kind: PayloadChallengeResult, ChallengeResult: result}, nil
	}

	return InboundPayload{}, domain.NewPaymentError(domain.ErrUnrecognizedPayload,
		"payload matches no known 3DS step", "UNRECOGNIZED_PAYLOAD")
}

func anyKeyHasPrefix(form map[string]string, prefix string) bool {
	for k := range form {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}
