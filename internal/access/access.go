// Package access decides who may mutate campaigns.
package access

import (
	"context"
	"strings"

	"fundraiser/internal/middleware"
)

// SystemCaller is the identity used when the service replays its journal.
const SystemCaller = "system"

// Owner authorizes a single designated subject. The caller is the subject of
// the request's bearer token.
type Owner struct {
	Subject string
}

func NewOwner(subject string) Owner {
	return Owner{Subject: strings.TrimSpace(subject)}
}

func (o Owner) CurrentCaller(ctx context.Context) string {
	return middleware.UserIDFromContext(ctx)
}

func (o Owner) IsAuthorized(caller string) bool {
	return o.Subject != "" && caller == o.Subject
}

// System authorizes everything. It is only handed to registries being
// rebuilt from already-authorized journal entries.
type System struct{}

func (System) CurrentCaller(context.Context) string { return SystemCaller }

func (System) IsAuthorized(string) bool { return true }
