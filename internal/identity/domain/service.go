package domain

import (
	"context"
	"errors"

	orgdomain "github.com/acknowledge-dev/acknowledge/internal/organization/domain"
)

// Resolver maps a remote organization and provider user id to a local
// account, provisioning the organization, user and account as needed.
type Resolver interface {
	Resolve(ctx context.Context, linearOrgID, providerUserID string) (*Account, *orgdomain.Organization, error)
}

var (
	ErrInvalidProviderUser = errors.New("invalid_provider_user")
	// ErrMissingCredential means the organization has no API key for the
	// remote profile lookup. External misconfiguration, not a request defect.
	ErrMissingCredential = errors.New("missing_credential")
	// ErrRemoteLookupFailed covers both unknown remote users and transient
	// lookup failures. No local mutation has happened when it is returned,
	// so webhook redelivery retries it for free.
	ErrRemoteLookupFailed = errors.New("remote_lookup_failed")
)
