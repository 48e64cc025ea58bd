package model

// Attribution is the parsed marketing metadata attached to a conversation at
// creation time. Immutable once set; never recomputed from later messages in
// the same conversation.
type Attribution struct {
	Source      string `json:"source,omitempty"`
	SourceID    string `json:"source_id,omitempty"`
	SourceType  string `json:"source_type,omitempty"`
	SourceURL   string `json:"source_url,omitempty"`
	Headline    string `json:"headline,omitempty"`
	BodyText    string `json:"body_text,omitempty"`
	CtwaClid    string `json:"ctwa_clid,omitempty"`
	UTMSource   string `json:"utm_source,omitempty"`
	UTMMedium   string `json:"utm_medium,omitempty"`
	UTMCampaign string `json:"utm_campaign,omitempty"`
	UTMTerm     string `json:"utm_term,omitempty"`
	UTMContent  string `json:"utm_content,omitempty"`
}

// IsEmpty reports whether no attribution field is populated. An empty
// attribution is a valid, non-error outcome.
func (a Attribution) IsEmpty() bool {
	return a == Attribution{}
}
