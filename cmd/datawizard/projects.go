// cmd/datawizard/projects.go
package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/David-Botos/datawizard/pkg/catalog"
	"github.com/David-Botos/datawizard/pkg/model"
	"github.com/David-Botos/datawizard/pkg/report"
)

var (
	catalogPath   string
	topic         string
	minDifficulty string
	maxDifficulty string
	techs         []string
	dataset       string
	keywords      string
	limit         int
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Filter the project catalog",
	Long: `Prints catalog projects matching the given filters. Without filters the
catalog is listed in a random order, as the service shows it to a new visitor.`,
	Args: cobra.NoArgs,
	RunE: runProjects,
}

func init() {
	f := projectsCmd.Flags()
	f.StringVar(&catalogPath, "catalog", "", "Catalog file (default CATALOG_PATH)")
	f.StringVar(&topic, "topic", "", "Text in the title, description, tech or keywords")
	f.StringVar(&minDifficulty, "min", "", "Lowest difficulty (Beginner, Intermediate, Advanced, Expert)")
	f.StringVar(&maxDifficulty, "max", "", "Highest difficulty")
	f.StringSliceVar(&techs, "tech", nil, "Required technologies, any of")
	f.StringVar(&dataset, "dataset", "", "Text in a dataset name")
	f.StringVar(&keywords, "keywords", "", "Text in a keyword")
	f.IntVar(&limit, "limit", 0, "Projects to show (default PAGE_SIZE)")
}

func runProjects(cmd *cobra.Command, args []string) error {
	path := catalogPath
	if path == "" {
		path = cfg.Catalog.Path
	}

	handler := report.NewHandler(logger)
	projects, err := catalog.NewLoader(logger).LoadFile(path, handler)
	if err != nil {
		return err
	}

	criteria := catalog.DefaultCriteria()
	criteria.Topic = topic
	criteria.Tech = techs
	criteria.Dataset = dataset
	criteria.Keywords = keywords
	if minDifficulty != "" {
		if criteria.MinDifficulty, err = model.ParseDifficulty(minDifficulty); err != nil {
			return err
		}
	}
	if maxDifficulty != "" {
		if criteria.MaxDifficulty, err = model.ParseDifficulty(maxDifficulty); err != nil {
			return err
		}
	}

	sess := catalog.NewSession("cli", catalog.Paging{
		PageSize:  cfg.Catalog.PageSize,
		Increment: cfg.Catalog.PageIncrement,
	}, nil)
	if len(criteria.Active()) > 0 {
		sess.Search(criteria)
	}
	if limit > 0 {
		sess.Limit = limit
	}

	out := cmd.OutOrStdout()
	for _, warning := range handler.Warnings() {
		fmt.Fprintf(out, "Warning: %s\n", warning)
	}
	printProjects(out, sess.Page(projects))
	return nil
}

func printProjects(w io.Writer, page catalog.Page) {
	if page.SearchActive {
		fmt.Fprintf(w, "Filters: %s\n", strings.Join(page.Criteria.Active(), ", "))
	}
	if page.Total == 0 {
		fmt.Fprintln(w, "No projects match the filters.")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetRowLine(true)
	table.SetHeader([]string{"Title", "Domain", "Difficulty", "Tech", "Datasets"})
	for _, p := range page.Items {
		table.Append([]string{
			p.Title,
			p.Domain,
			p.Difficulty.String(),
			strings.Join(p.Tech, ", "),
			strings.Join(p.Datasets, ", "),
		})
	}
	table.Render()

	fmt.Fprintf(w, "Showing %d of %d projects\n", len(page.Items), page.Total)
}
