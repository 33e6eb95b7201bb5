package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/pulse/internal/models"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search tasks across all fields",
	Long: `Search tasks with ranked matching:
- Exact match (highest priority)
- Prefix match
- Suffix match
- Fuzzy match (contains, lowest priority)

Search is case insensitive and looks at title, description, tags, status and priority.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		filter, err := listFilter(cmd)
		if err != nil {
			return err
		}

		all, err := pulse.Tasks.List(cmd.Context(), filter)
		if err != nil {
			return fmt.Errorf("error searching tasks: %w", err)
		}
		found := searchTasks(all, query)
		if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 && len(found) > limit {
			found = found[:limit]
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return renderSearchJSON(cmd.OutOrStdout(), found, query)
		}
		renderSearchTable(cmd.OutOrStdout(), found, query)
		return nil
	},
}

// match ranks, lower is better
const (
	rankExact = iota
	rankPrefix
	rankSuffix
	rankContains
	noMatch
)

func rankField(field, query string) int {
	field = strings.ToLower(field)
	switch {
	case field == "":
		return noMatch
	case field == query:
		return rankExact
	case strings.HasPrefix(field, query):
		return rankPrefix
	case strings.HasSuffix(field, query):
		return rankSuffix
	case strings.Contains(field, query):
		return rankContains
	}
	return noMatch
}

func rankTask(t models.Task, query string) int {
	fields := append([]string{t.Title, t.Description, string(t.Status), string(t.Priority)}, t.Tags...)
	best := noMatch
	for _, f := range fields {
		best = min(best, rankField(f, query))
	}
	return best
}

// searchTasks returns tasks matching query, best matches first
func searchTasks(all []models.Task, query string) []models.Task {
	query = strings.ToLower(strings.TrimSpace(query))
	type ranked struct {
		task models.Task
		rank int
	}
	var hits []ranked
	for _, t := range all {
		if r := rankTask(t, query); r != noMatch {
			hits = append(hits, ranked{t, r})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].rank < hits[j].rank })

	out := make([]models.Task, len(hits))
	for i, h := range hits {
		out[i] = h.task
	}
	return out
}

// renderSearchJSON outputs search results as JSON
func renderSearchJSON(w io.Writer, found []models.Task, query string) error {
	result := struct {
		Query string        `json:"query"`
		Count int           `json:"count"`
		Tasks []models.Task `json:"tasks"`
	}{query, len(found), found}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// renderSearchTable outputs search results as a formatted table
func renderSearchTable(w io.Writer, found []models.Task, query string) {
	fmt.Fprintf(w, "Search results for '%s' (%d found):\n", query, len(found))
	if len(found) == 0 {
		fmt.Fprintln(w, "No tasks found matching your search.")
		return
	}
	fmt.Fprintln(w)
	printTaskTable(w, found, nil)
}

func init() {
	searchCmd.Flags().StringP("status", "s", "", "Filter by status")
	searchCmd.Flags().StringP("priority", "p", "", "Filter by priority")
	searchCmd.Flags().StringP("tag", "t", "", "Filter by tag")
	searchCmd.Flags().Bool("open", false, "Only tasks that are not completed")
	searchCmd.Flags().IntP("limit", "l", 0, "Limit number of results")
	searchCmd.Flags().Bool("json", false, "Output as JSON")
}
