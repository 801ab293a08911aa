package client

import (
	"context"
	"net/http"

	"Quad/internal/core/identity"
)

var identityErrors = map[string]error{
	"TooManyIdentities": identity.ErrTooManyIdentities,
}

// FetchIdentities resolves display identities; unknown ids are omitted
func (c *Client) FetchIdentities(ctx context.Context, userIDs []string) (map[string]identity.Snapshot, error) {
	if len(userIDs) == 0 {
		return map[string]identity.Snapshot{}, nil
	}
	var out struct {
		Identities map[string]identity.Snapshot `json:"identities"`
	}
	err := c.do(ctx, request{
		method:     http.MethodPost,
		path:       "/api/identities",
		body:       map[string][]string{"userIds": userIDs},
		out:        &out,
		errs:       identityErrors,
		idempotent: true,
	})
	if err != nil {
		return nil, err
	}
	if out.Identities == nil {
		out.Identities = map[string]identity.Snapshot{}
	}
	return out.Identities, nil
}
