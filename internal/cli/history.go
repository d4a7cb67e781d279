package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wafermask/pkg/errors"
	"github.com/matzehuels/wafermask/pkg/store"
)

// Environment variables naming shared backends.
const (
	envMongoURI = "WAFERMASK_MONGO_URI"
	envRedisURL = "WAFERMASK_REDIS_URL"
)

const defaultHistoryLimit = 20

// historyCommand creates the history command that lists past runs.
func (c *CLI) historyCommand() *cobra.Command {
	var (
		limit    int
		asJSON   bool
		mongoURI string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past generation runs",
		Long: `List past generation runs, newest first.

Runs are recorded in the local state directory. With --mongo (or
` + envMongoURI + `) the history of a shared MongoDB deployment is read instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runHistory(cmd.Context(), mongoURI, limit, asJSON)
		},
	}

	cmd.PersistentFlags().StringVar(&mongoURI, "mongo", os.Getenv(envMongoURI), "MongoDB URI of a shared run history")
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultHistoryLimit, "number of runs to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the runs as JSON")

	cmd.AddCommand(c.historyShowCommand(&mongoURI))

	return cmd
}

// historyShowCommand creates the "history show" subcommand.
func (c *CLI) historyShowCommand(mongoURI *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runHistoryShow(cmd.Context(), *mongoURI, args[0])
		},
	}
}

// openHistory opens the MongoDB history when uri is set and the local
// history file otherwise.
func openHistory(ctx context.Context, uri string) (store.Store, error) {
	if uri != "" {
		return store.NewMongoStore(ctx, store.MongoConfig{URI: uri})
	}
	return newHistory(false)
}

func (c *CLI) runHistory(ctx context.Context, mongoURI string, limit int, asJSON bool) error {
	st, err := openHistory(ctx, mongoURI)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	records, err := st.List(ctx, limit)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	if len(records) == 0 {
		printInfo("No runs recorded yet")
		return nil
	}

	fmt.Println(renderTable(
		[]string{"Run", "When", "Job", "Size", "Sections", "Shapes", "Formats", "Duration"},
		historyCells(records, time.Now()),
		func(i int) bool { return records[i].CacheHit },
	))
	printDetail("cached runs are dimmed")
	return nil
}

func (c *CLI) runHistoryShow(ctx context.Context, mongoURI, id string) error {
	st, err := openHistory(ctx, mongoURI)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	r, err := findRun(ctx, st, id)
	if err != nil {
		return err
	}

	fmt.Println(StyleTitle.Render(r.Job))
	printKeyValue("Run", r.ID)
	printKeyValue("Created", r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	printKeyValue("Job hash", r.JobHash)
	printKeyValue("Cell", r.Cell)
	printKeyValue("Wafer", fmt.Sprintf("%dmm, %dx%d sections", r.Size, r.Rows, r.Cols))
	printKeyValue("Generated", fmt.Sprintf("%d sections, %d shapes", r.Sections, r.Shapes))
	printKeyValue("Formats", strings.Join(r.Formats, ", "))
	printKeyValue("Cached", strconv.FormatBool(r.CacheHit))
	printKeyValue("Duration", r.Duration.Round(time.Millisecond).String())
	for _, o := range r.Outputs {
		printFile(o)
	}
	return nil
}

// findRun looks up a run by its full ID or by a unique ID prefix, as
// printed in the history table.
func findRun(ctx context.Context, st store.Store, id string) (store.Record, error) {
	r, err := st.Get(ctx, id)
	if err == nil || !errors.Is(err, errors.ErrCodeNotFound) {
		return r, err
	}
	records, lerr := st.List(ctx, 0)
	if lerr != nil {
		return store.Record{}, lerr
	}
	var matches []store.Record
	for _, rec := range records {
		if strings.HasPrefix(rec.ID, id) {
			matches = append(matches, rec)
		}
	}
	switch len(matches) {
	case 0:
		return store.Record{}, err
	case 1:
		return matches[0], nil
	default:
		return store.Record{}, errors.New(errors.ErrCodeInvalidArgument, "run prefix %q is ambiguous (%d matches)", id, len(matches))
	}
}

// historyCells formats records as table cells relative to now.
func historyCells(records []store.Record, now time.Time) [][]string {
	out := make([][]string, len(records))
	for i, r := range records {
		out[i] = []string{
			shortID(r.ID),
			formatRelativeTime(r.CreatedAt, now),
			r.Job,
			fmt.Sprintf("%dmm", r.Size),
			strconv.Itoa(r.Sections),
			strconv.Itoa(r.Shapes),
			strings.Join(r.Formats, ","),
			r.Duration.Round(time.Millisecond).String(),
		}
	}
	return out
}

// shortID returns the first block of a run ID.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

func formatRelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Local().Format("Jan 2, 2006")
	}
}
