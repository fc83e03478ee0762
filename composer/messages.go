package composer

import (
	"errors"
	"fmt"

	"auto_wordpress_article_publisher/apiclient"
)

// ErrorMessage turns an action error into banner text.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrEmptyContent):
		return "Failed to generate content"
	case errors.Is(err, ErrNoPostURL):
		return "Failed to post to WordPress"
	case errors.Is(err, apiclient.ErrUnauthenticated):
		return "Authentication required. Please log in again."
	}
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Type == apiclient.TypeBlacklisted {
			if domain := apiErr.Field("blacklisted_domain"); domain != "" {
				return fmt.Sprintf("Domain %q is blacklisted due to previous errors. Try a different URL.", domain)
			}
		}
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fmt.Sprintf("Request failed (HTTP %d)", apiErr.Status)
	}
	if errors.Is(err, apiclient.ErrInvalidJSON) {
		return "Server returned invalid JSON response"
	}
	return err.Error()
}
