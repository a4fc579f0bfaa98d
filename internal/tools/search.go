package tools

import (
	"context"

	"github.com/sandboxkernel/kernel/internal/searchclient"
)

// infoSearchWeb is only wired into an agent's tool registry when the
// kernel is configured with search credentials; it is the one tool whose
// SSE visibility differs (see sse.ToSSE), since its "calling" phase
// produces no useful partial state for the user to watch.
type infoSearchWeb struct{ search *searchclient.Client }

type InfoSearchWebParams struct {
	Query     string `json:"query" jsonschema:"required,description=Search query in Google search style, using 3-5 keywords."`
	DateRange string `json:"date_range,omitempty" jsonschema:"enum=all,enum=past_hour,enum=past_day,enum=past_week,enum=past_month,enum=past_year,description=Optional time range filter for search results."`
}

func NewInfoSearchWeb(search *searchclient.Client) *infoSearchWeb { return &infoSearchWeb{search} }
func (t *infoSearchWeb) Name() string                             { return "info_search_web" }
func (t *infoSearchWeb) Description() string {
	return "Search web pages using a search engine. Use for obtaining the latest information or finding references."
}
func (t *infoSearchWeb) NewParams() any { return &InfoSearchWebParams{} }
func (t *infoSearchWeb) Call(ctx context.Context, params any) (string, error) {
	p := params.(*InfoSearchWebParams)
	results, err := t.search.Search(ctx, p.Query, p.DateRange)
	if err != nil {
		return "", err
	}
	return searchclient.FormatResults(results), nil
}
