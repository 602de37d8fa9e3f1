// Package remote resolves vendor eligibility from the vendor service over HTTP.
package remote

import (
	"context"
	"fmt"
	"strings"

	"github.com/utafrali/discovery/internal/catalog"
	"github.com/utafrali/discovery/pkg/httpclient"
)

const (
	serviceName  = "vendor-service"
	eligiblePath = "/api/v1/vendors/eligible"
)

// EligibilityResolver asks the vendor service which vendors are approved.
type EligibilityResolver struct {
	client  httpclient.Doer
	baseURL string
}

var _ catalog.EligibilityResolver = (*EligibilityResolver)(nil)

// NewEligibilityResolver creates a resolver for the vendor service at baseURL.
// client is normally a circuit-breaking httpclient.
func NewEligibilityResolver(client httpclient.Doer, baseURL string) *EligibilityResolver {
	return &EligibilityResolver{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type eligibleResponse struct {
	Data struct {
		VendorIDs []string `json:"vendor_ids"`
	} `json:"data"`
}

// ResolveEligibleVendorIDs fetches the approved vendor ids.
func (r *EligibilityResolver) ResolveEligibleVendorIDs(ctx context.Context) ([]string, error) {
	var resp eligibleResponse
	if err := httpclient.GetJSON(ctx, r.client, r.baseURL+eligiblePath, serviceName, &resp); err != nil {
		return nil, fmt.Errorf("resolve eligible vendors: %w", err)
	}
	if resp.Data.VendorIDs == nil {
		return []string{}, nil
	}
	return resp.Data.VendorIDs, nil
}
