package normalize

import (
	"net/url"

	"gitlab.com/crmcom/api/centralwap-router/internal/model"
)

// ParseAttribution builds a single attribution record from an inbound
// message's referral object and an optional landing-page URL carrying UTM
// parameters. Referral fields are copied through verbatim; URL query
// parameters are merged on top and win on key collision. Absence of both
// inputs yields an empty attribution, which is a valid outcome.
func ParseAttribution(referral *model.WebhookReferral, landingURL string) model.Attribution {
	var attr model.Attribution

	if referral != nil {
		attr.Source = referral.SourceType // e.g. "ad", "post"
		attr.SourceID = referral.SourceID
		attr.SourceType = referral.SourceType
		attr.SourceURL = referral.SourceURL
		attr.Headline = referral.Headline
		attr.BodyText = referral.Body
		attr.CtwaClid = referral.CtwaClid
		if landingURL == "" {
			landingURL = referral.SourceURL
		}
	}

	if landingURL == "" {
		return attr
	}

	parsed, err := url.Parse(landingURL)
	if err != nil {
		return attr
	}
	query := parsed.Query()

	// URL-based attribution overrides referral metadata on key collision.
	overrides := map[string]*string{
		"source":       &attr.Source,
		"source_id":    &attr.SourceID,
		"source_type":  &attr.SourceType,
		"headline":     &attr.Headline,
		"body":         &attr.BodyText,
		"ctwa_clid":    &attr.CtwaClid,
		"utm_source":   &attr.UTMSource,
		"utm_medium":   &attr.UTMMedium,
		"utm_campaign": &attr.UTMCampaign,
		"utm_term":     &attr.UTMTerm,
		"utm_content":  &attr.UTMContent,
	}
	for key, field := range overrides {
		if v := query.Get(key); v != "" {
			*field = v
		}
	}

	return attr
}
