// Package gcloud builds client options for the Google Cloud speech APIs.
package gcloud

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// CloudPlatformScope covers both Speech-to-Text and Text-to-Speech.
const CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// Credentials selects how requests are authorized. The first non-empty
// field wins; with neither set, Application Default Credentials are used.
type Credentials struct {
	APIKey      string
	AccessToken string

	// Endpoint overrides the service base URL.
	Endpoint string
}

// ClientOptions returns options for a google.golang.org/api service.
func ClientOptions(ctx context.Context, creds Credentials) ([]option.ClientOption, error) {
	var opts []option.ClientOption
	if creds.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(creds.Endpoint))
	}

	switch {
	case creds.APIKey != "":
		opts = append(opts, option.WithAPIKey(creds.APIKey))
	case creds.AccessToken != "":
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.AccessToken, TokenType: "Bearer"})
		opts = append(opts, option.WithTokenSource(ts))
	default:
		ts, err := google.DefaultTokenSource(ctx, CloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("google default credentials: %w", err)
		}
		opts = append(opts, option.WithTokenSource(ts))
	}
	return opts, nil
}
