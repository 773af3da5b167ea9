package bravesearch

import (
	"context"

	"github.com/leofalp/researchagent/providers/tool"
)

// ToolName is the name the model uses to call the search tool.
const ToolName = "search_web"

// DefaultMaxResults applies when the model omits max_results.
const DefaultMaxResults = 10

// NewBraveSearchTool exposes client as the search_web tool.
func NewBraveSearchTool(client *Client) *tool.Tool[Input, Output] {
	return tool.NewTool(
		ToolName,
		func(ctx context.Context, input Input) (Output, error) {
			maxResults := input.MaxResults
			if maxResults == 0 {
				maxResults = DefaultMaxResults
			}

			results, err := client.Search(ctx, input.Query, maxResults)
			if err != nil {
				return Output{}, err
			}
			return Output{
				Query:   input.Query,
				Summary: Format(input.Query, results),
				Results: results,
			}, nil
		},
		tool.WithDescription("Search the web for current information. Returns up to max_results results (1-20, default 10), each with a title, URL and description. Use specific queries and cite the URLs you rely on."),
	)
}
