package bravesearch

// SearchResult is one web hit, in API order.
type SearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Age         string `json:"age,omitempty"`
}

// Input is what the model passes to the search_web tool. Out-of-range counts
// are clamped and long queries capped by Client.Search rather than rejected.
type Input struct {
	Query      string `json:"query" jsonschema:"description=The search query" validate:"required"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"description=Maximum number of results (1-20; default 10),minimum=1,maximum=20"`
}

// Output is returned to the model. Summary holds the formatted text; Results
// the same hits in structured form.
type Output struct {
	Query   string         `json:"query"`
	Summary string         `json:"summary"`
	Results []SearchResult `json:"results"`
}

// apiResponse is the subset of the web search payload that is consumed.
type apiResponse struct {
	Web *struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
			Age         string `json:"age"`
		} `json:"results"`
	} `json:"web"`
}
