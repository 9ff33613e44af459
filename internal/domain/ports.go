// Package domain contains the core business entities and interfaces for the
// 3-D Secure payment service.
package domain

import "context"

// GatewayClient defines the interface for the acquiring gateway's direct API.
// This is a "port" in hexagonal architecture - the domain defines what it
// needs, and infrastructure provides the implementation.
type GatewayClient interface {
	// DirectRequest submits one field set to the gateway and returns the
	// response field set. Returns ErrGateway (wrapped) on transport failure,
	// timeout, or a malformed response. The core treats the call as
	// at-most-once: a SALE is never resubmitted on failure.
	DirectRequest(ctx context.Context, fields map[string]string) (ResponseFields, error)
}
