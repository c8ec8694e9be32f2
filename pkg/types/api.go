package types

// RewriteRequest asks for a pagination fragment to be rewritten.
type RewriteRequest struct {
	HTML      string `json:"html"`
	BaseURL   string `json:"base_url"`
	ContentID string `json:"content_id,omitempty"`
	Paged     int    `json:"paged,omitempty"`
	Page      int    `json:"page,omitempty"`
}

// RewriteResponse is the rewritten fragment plus the signal it was built from.
type RewriteResponse struct {
	HTML        string `json:"html"`
	CurrentPage int    `json:"current_page"`
	TotalPages  int    `json:"total_pages"`
	Changed     bool   `json:"changed"`
	Windowed    bool   `json:"windowed"`
	Widgets     int    `json:"widgets"`
}

// HeadLinksRequest asks for the rel=prev/next links of a render.
// QueryTotal is the host's own page count, 0 when unknown.
type HeadLinksRequest struct {
	BaseURL          string `json:"base_url"`
	ContentID        string `json:"content_id,omitempty"`
	Paged            int    `json:"paged,omitempty"`
	Page             int    `json:"page,omitempty"`
	QueryTotal       int    `json:"query_total,omitempty"`
	ContentSignature string `json:"content_signature,omitempty"`
}

// HeadLink is one <link rel> element.
type HeadLink struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// HeadLinksResponse holds the links both structured and rendered.
type HeadLinksResponse struct {
	Links       []HeadLink `json:"links"`
	HTML        string     `json:"html"`
	CurrentPage int        `json:"current_page"`
	TotalPages  int        `json:"total_pages"`
}

// DocumentRequest carries a full page for rewriting. BaseURL may be omitted
// when the document has a canonical link.
type DocumentRequest struct {
	HTML             string `json:"html"`
	BaseURL          string `json:"base_url,omitempty"`
	ContentID        string `json:"content_id,omitempty"`
	Paged            int    `json:"paged,omitempty"`
	Page             int    `json:"page,omitempty"`
	QueryTotal       int    `json:"query_total,omitempty"`
	ContentSignature string `json:"content_signature,omitempty"`
	InjectScript     *bool  `json:"inject_script,omitempty"`
}

// DocumentResponse is the processed page.
type DocumentResponse struct {
	HTML        string     `json:"html"`
	Links       []HeadLink `json:"links"`
	CurrentPage int        `json:"current_page"`
	TotalPages  int        `json:"total_pages"`
	Changed     bool       `json:"changed"`
}
