// Package research implements the web research agent: an LLM driven by the
// ReAct loop with a single search_web tool backed by the Brave Search API.
//
//	result, err := research.RunResearch(ctx, settings, "latest Go release notes", "")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(result.Answer)
package research
