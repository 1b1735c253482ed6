package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"taxonid/internal/config"
	"taxonid/internal/hierarchy"
	"taxonid/internal/rank"
	"taxonid/internal/services"
	"taxonid/internal/store"
	"taxonid/internal/taxon"
	"taxonid/internal/taxonapi"
)

func newTaxaCommand(ctx *commandContext) *cobra.Command {
	taxaCmd := &cobra.Command{
		Use:   "taxa",
		Short: "Manage and search the taxon catalog",
	}
	taxaCmd.AddCommand(newTaxaImportCommand(ctx))
	taxaCmd.AddCommand(newTaxaSearchCommand(ctx))
	return taxaCmd
}

func newTaxaImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import taxa from a JSON array of search records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			var records []taxon.Record
			if err := json.Unmarshal(data, &records); err != nil {
				return services.Wrap(services.ErrValidation, "taxa", "import", "decode "+path, err)
			}
			for i, rec := range records {
				if err := rec.Normalize().Validate(); err != nil {
					return services.Wrap(services.ErrValidation, "taxa", "import", fmt.Sprintf("record %d", i+1), err)
				}
			}

			return ctx.withStore(func(st *store.Store) error {
				imported := make([]taxon.Record, 0, len(records))
				for _, rec := range records {
					saved, err := st.UpsertTaxon(commandCtx(cmd), rec.Normalize())
					if err != nil {
						return err
					}
					imported = append(imported, saved)
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, imported)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d taxa\n", len(imported))
				return nil
			})
		},
	}
}

func newTaxaSearchCommand(ctx *commandContext) *cobra.Command {
	var rankFlag string
	var page, perPage int
	var remote, tree bool

	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Search taxa in the local catalog or the remote search service",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := taxon.Query{Text: strings.Join(args, " "), Page: page, PerPage: perPage}
			if strings.TrimSpace(rankFlag) != "" {
				r, ok := rank.Parse(rankFlag)
				if !ok {
					return services.Wrap(services.ErrValidation, "taxa", "search", fmt.Sprintf("unknown rank %q", rankFlag), nil)
				}
				query.Rank = r
			}

			return ctx.withStore(func(st *store.Store) error {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				searcher, err := ctx.searcher(st, remote)
				if err != nil {
					return err
				}
				session := taxonapi.NewSession(searcher)
				results, err := session.Search(commandCtx(cmd), query.Normalized(cfg.Search.PerPage))
				if err != nil {
					return err
				}

				if tree {
					nodes := ctx.service(cfg, st, searcher).Tree(commandCtx(cmd), results)
					if ctx.JSONMode() {
						return writeJSON(cmd, nodes)
					}
					fmt.Fprint(cmd.OutOrStdout(), renderTree(nodes))
					return nil
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, results)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTaxa(results))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&rankFlag, "rank", "", "Restrict results to a rank (e.g. species, genus)")
	cmd.Flags().IntVar(&page, "page", 1, "Result page")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "Results per page (defaults to search.per_page)")
	cmd.Flags().BoolVar(&remote, "remote", false, "Query the configured remote search service")
	cmd.Flags().BoolVar(&tree, "tree", false, "Resolve synonyms and group results into a hierarchy")
	return cmd
}

func renderTaxa(records []taxon.Record) string {
	if len(records) == 0 {
		return "No taxa found"
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		status := string(rec.Status)
		if rec.IsSynonym() {
			status += " of " + rec.AcceptedScientificName
		}
		rows = append(rows, []string{rec.ID, rec.Label(), rec.EffectiveRank().String(), status})
	}
	return renderTable([]string{"ID", "Taxon", "Rank", "Status"}, rows, nil)
}

func renderTree(nodes []hierarchy.Node) string {
	if len(nodes) == 0 {
		return "No taxa found\n"
	}
	var b strings.Builder
	for _, node := range nodes {
		b.WriteString(strings.Repeat("  ", node.Depth))
		if node.IsChild {
			b.WriteString("└ ")
		}
		b.WriteString(node.Record.Label())
		fmt.Fprintf(&b, " [%s]\n", node.Record.EffectiveRank())
	}
	return b.String()
}
