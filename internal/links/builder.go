package links

import (
	"fmt"
	"net/url"
)

// RedirectPathPrefix is the public path prefix of the redirect-and-track
// endpoint that resolves refs back to links.
const RedirectPathPrefix = "/r/"

// FullURL composes the final outbound URL for a link: the base URL with the
// UTM parameters and tracking ref overlaid onto any existing query string.
//
// Existing query keys are preserved; utm_source, utm_medium and utm_campaign
// always replace same-named keys, while utm_term, utm_content and ref are
// only added when non-empty. The fragment is preserved. Re-parsing the
// output and rebuilding yields the same string, because the overlay writes
// identical values and the encoder orders keys deterministically.
//
// An unparseable base URL is returned unchanged: tracking degradation must
// not hard-fail campaign operations.
func FullURL(link *Link) string {
	parsed, err := url.Parse(link.URL)
	if err != nil {
		return link.URL
	}

	params := parsed.Query()
	params.Set("utm_source", link.UTMSource)
	params.Set("utm_medium", link.UTMMedium)
	params.Set("utm_campaign", link.UTMCampaign)
	if link.UTMTerm != "" {
		params.Set("utm_term", link.UTMTerm)
	}
	if link.UTMContent != "" {
		params.Set("utm_content", link.UTMContent)
	}
	if link.Ref != "" {
		params.Set("ref", link.Ref)
	}

	parsed.RawQuery = params.Encode()
	return parsed.String()
}

// RedirectPath returns the relative tracking path for a link. The redirect
// handler resolves the embedded ref back to the link, records the visit and
// redirects to FullURL.
func RedirectPath(link *Link) string {
	return fmt.Sprintf("%s%s", RedirectPathPrefix, link.Ref)
}
