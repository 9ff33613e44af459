// Package threeds implements the core of the 3-D Secure flow: the outbound
// gateway field builder, the response classifier, the inbound payload
// discrimination, and the orchestration service that drives one payment
// attempt through browser fingerprinting, authorization, and the optional
// issuer challenge.
package threeds

import (
	"fmt"
	"sort"
	"strings"
)

// equalSentinel stands in for "=" inside the serialized challenge-result
// value. The gateway's wire syntax reserves "&" and "=" for nested-array
// semantics, so raw values must not contain "=". Only this file knows the
// sentinel; call sites go through the Encode/Decode pair.
const equalSentinel = "__EQUAL__SIGN__"

// EncodeChallengeResponse serializes the challenge-result payload for the
// gateway's threeDSResponse field: each pair becomes "[key]<sentinel>value",
// joined by "&". Keys are emitted in sorted order so the encoding is
// deterministic.
func EncodeChallengeResponse(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, "["+k+"]"+equalSentinel+fields[k])
	}
	return strings.Join(parts, "&")
}

// DecodeChallengeResponse reverses EncodeChallengeResponse.
func DecodeChallengeResponse(s string) (map[string]string, error) {
	fields := make(map[string]string)
	if s == "" {
		return fields, nil
	}
	for _, part := range strings.Split(s, "&") {
		if !strings.HasPrefix(part, "[") {
			return nil, fmt.Errorf("malformed challenge-response part %q", part)
		}
		end := strings.Index(part, "]"+equalSentinel)
		if end < 1 {
			return nil, fmt.Errorf("malformed challenge-response part %q", part)
		}
		key := part[1:end]
		value := part[end+1+len(equalSentinel):]
		fields[key] = value
	}
	return fields, nil
}
