package domain

// StepResult is the tagged outcome of resolving one step from a title.
// It is exactly one of Found, NoLink or FetchFailed.
type StepResult interface {
	// SourceTitle is the title the step was resolved from.
	SourceTitle() string
	isStepResult()
}

// Found means a qualifying link was extracted. Preview is the fetched summary of the
// linked article, or a fallback carrying only the decoded title.
type Found struct {
	Title   string
	Link    string
	Preview Preview
}

// NoLink means the article exists (or is absent) but offers no qualifying link,
// or no display title could be derived from it.
type NoLink struct {
	Title string
}

// FetchFailed means the markup fetch failed transiently (network or HTTP level).
type FetchFailed struct {
	Title string
	Err   error
}

func (f Found) SourceTitle() string       { return f.Title }
func (n NoLink) SourceTitle() string      { return n.Title }
func (f FetchFailed) SourceTitle() string { return f.Title }

func (Found) isStepResult()       {}
func (NoLink) isStepResult()      {}
func (FetchFailed) isStepResult() {}

// StepResponse is the wire shape of a resolved step: {title, nextLink, nextPreview}.
type StepResponse struct {
	Title       string   `json:"title"`
	NextLink    *string  `json:"nextLink"`
	NextPreview *Preview `json:"nextPreview"`
}

// NewStepResponse flattens a StepResult into its wire shape.
// NoLink and FetchFailed both surface as a response without link and preview.
func NewStepResponse(r StepResult) StepResponse {
	resp := StepResponse{Title: r.SourceTitle()}
	if found, ok := r.(Found); ok {
		link := found.Link
		preview := found.Preview
		resp.NextLink = &link
		resp.NextPreview = &preview
	}
	return resp
}
