// Package links builds redirect links under the service's own origin.
package links

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/vincentbai/browsetrace-dashboard/internal/models"
)

// DefaultRoute is used when no custom route is given.
const DefaultRoute = "/readme"

var (
	ErrMissingRedirect = errors.New("please provide a Redirect URL")
	ErrInvalidLink     = errors.New("invalid link")
)

// Generate joins origin, route and extension into the public link.
// A blank route falls back to DefaultRoute and a leading slash is enforced.
func Generate(origin, route, extension, redirectURL string) (string, error) {
	if strings.TrimSpace(redirectURL) == "" {
		return "", ErrMissingRedirect
	}
	route = strings.TrimSpace(route)
	if route == "" {
		route = DefaultRoute
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	return strings.TrimSuffix(origin, "/") + route + extension, nil
}

// NewRequest validates the inputs and returns the payload POSTed to /generate-link.
func NewRequest(origin, route, extension, redirectURL string) (models.LinkRequest, error) {
	generated, err := Generate(origin, route, extension, redirectURL)
	if err != nil {
		return models.LinkRequest{}, err
	}
	return models.LinkRequest{GeneratedLink: generated, RedirectURL: strings.TrimSpace(redirectURL)}, nil
}

// Validate checks a request received by the server.
func Validate(req models.LinkRequest) error {
	if err := absoluteHTTP(req.GeneratedLink); err != nil {
		return fmt.Errorf("generatedLink: %w", err)
	}
	if err := absoluteHTTP(req.RedirectURL); err != nil {
		return fmt.Errorf("redirectUrl: %w", err)
	}
	return nil
}

func absoluteHTTP(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: empty", ErrInvalidLink)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q is not an absolute http(s) URL", ErrInvalidLink, raw)
	}
	return nil
}
