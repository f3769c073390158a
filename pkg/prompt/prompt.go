// Package prompt builds the two language-model prompts of the post pipeline.
//
// Both builders are pure: the same inputs always yield the same text, and
// the output is never empty, even for empty inputs.
package prompt

import (
	"strings"

	"github.com/rhuss/postsmith/pkg/api"
)

// Summary returns the prompt asking the model to summarize the search
// results for topic. Results are rendered in order as "Title:" and
// "Snippet:" blocks separated by a blank line.
func Summary(topic string, results []api.SearchResult) string {
	var b strings.Builder
	b.WriteString(`You are a helpful research assistant. Summarize the following search results about "`)
	b.WriteString(topic)
	b.WriteString(`" in a clear, comprehensive way that captures the key information. `)
	b.WriteString("Focus on recent trends, statistics, expert opinions, and noteworthy developments.\n")
	b.WriteString("SEARCH RESULTS:\n")
	b.WriteString(Context(results))
	b.WriteString("\n\nSummary:")
	return b.String()
}

// Post returns the prompt asking the model to turn summary into a post
// about topic, written in the fixed persona.
func Post(topic, summary string) string {
	var b strings.Builder
	b.WriteString(`You're an expert LinkedIn content writer. Write an engaging LinkedIn post about "`)
	b.WriteString(topic)
	b.WriteString(`" based on the following research summary:`)
	b.WriteString("\n\nRESEARCH SUMMARY:\n")
	b.WriteString(summary)
	b.WriteString("\n\nFollow these style guidelines:\n")
	b.WriteString(persona)
	b.WriteString("\n\nLinkedIn Post:")
	return b.String()
}

// Context renders search results as the context block of the summary prompt.
func Context(results []api.SearchResult) string {
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, "Title: "+r.Title+"\nSnippet: "+r.Snippet)
	}
	return strings.Join(blocks, "\n\n")
}
