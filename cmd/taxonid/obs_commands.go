package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"taxonid/internal/consensus"
	"taxonid/internal/identification"
	"taxonid/internal/services"
	"taxonid/internal/store"
	"taxonid/internal/taxon"
)

func newObservationCommand(ctx *commandContext) *cobra.Command {
	obsCmd := &cobra.Command{
		Use:     "obs",
		Aliases: []string{"observation"},
		Short:   "Create and inspect observations",
	}
	obsCmd.AddCommand(newObservationCreateCommand(ctx))
	obsCmd.AddCommand(newObservationShowCommand(ctx))
	obsCmd.AddCommand(newObservationListCommand(ctx))
	obsCmd.AddCommand(newObservationEvaluateCommand(ctx))
	obsCmd.AddCommand(newObservationStatsCommand(ctx))
	return obsCmd
}

func newObservationCreateCommand(ctx *commandContext) *cobra.Command {
	var selector taxonSelector

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an observation, optionally with an observer-supplied taxon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				var rec taxon.Record
				if !selector.empty() {
					var err error
					if rec, err = selector.resolve(commandCtx(cmd), st, st); err != nil {
						return err
					}
				}
				obs, err := st.CreateObservation(commandCtx(cmd), rec)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, obs)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created observation %s\n", obs.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&selector.id, "taxon-id", "", "Catalog taxon id")
	cmd.Flags().StringVar(&selector.name, "name", "", "Exact scientific name")
	return cmd
}

type observationView struct {
	*store.Observation
	Identifications []identification.Identification `json:"identifications"`
}

func newObservationShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <observation-id>",
		Short: "Show an observation, its consensus and identifications",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				obs, err := st.GetObservation(commandCtx(cmd), args[0])
				if err != nil {
					return err
				}
				if obs == nil {
					return services.Wrap(services.ErrNotFound, "obs", "show", fmt.Sprintf("observation %q", args[0]), nil)
				}
				ids, err := st.ListIdentifications(commandCtx(cmd), obs.ID)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, observationView{Observation: obs, Identifications: ids})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Observation: %s\n", obs.ID)
				label := "(unidentified)"
				if obs.Consensus != nil && obs.Consensus.Label != "" {
					label = obs.Consensus.Label
				} else if l := obs.Taxon.Label(); l != "" {
					label = l
				}
				fmt.Fprintf(out, "Taxon: %s\n", label)
				fmt.Fprintf(out, "Grade: %s\n", gradeText(out, obs.Grade))
				if obs.Consensus != nil {
					fmt.Fprintf(out, "Confidence: %s\n", confidenceText(*obs.Consensus))
					fmt.Fprintf(out, "Quorum reached: %s (%d of %d)\n", yesNo(obs.Consensus.QuorumReached),
						obs.Consensus.AgreementsForWinner, obs.Consensus.TotalParticipants)
				}
				if len(ids) == 0 {
					fmt.Fprintln(out, "No identifications")
					return nil
				}
				fmt.Fprintln(out, renderIdentifications(ids, obs.Consensus))
				return nil
			})
		},
	}
}

func renderIdentifications(ids []identification.Identification, result *consensus.Result) string {
	winner := ""
	if result != nil && result.Winner != nil {
		winner = result.Winner.ID
	}
	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		marker := ""
		if id.ID == winner {
			marker = "*"
		}
		name := ""
		if id.Taxon != nil {
			name = id.Taxon.Label()
		}
		note := id.Comment
		if id.DisagreesWith != "" {
			note = strings.TrimSpace("disagrees with " + id.DisagreesWith + ": " + note)
		}
		rows = append(rows, []string{
			marker,
			id.ID,
			id.UserID,
			name,
			string(id.State()),
			strconv.Itoa(id.AgreementCount),
			note,
		})
	}
	return renderTable(
		[]string{"", "ID", "User", "Taxon", "State", "Agreements", "Note"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}

func newObservationListCommand(ctx *commandContext) *cobra.Command {
	var gradeFlag string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List observations, optionally filtered by grade",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var grade consensus.Grade
			if strings.TrimSpace(gradeFlag) != "" {
				g, ok := consensus.ParseGrade(strings.TrimSpace(gradeFlag))
				if !ok {
					return services.Wrap(services.ErrValidation, "obs", "list", fmt.Sprintf("unknown grade %q", gradeFlag), nil)
				}
				grade = g
			}
			return ctx.withStore(func(st *store.Store) error {
				list, err := st.ListObservations(commandCtx(cmd), grade, limit)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, list)
				}
				out := cmd.OutOrStdout()
				if len(list) == 0 {
					fmt.Fprintln(out, "No observations")
					return nil
				}
				rows := make([][]string, 0, len(list))
				for _, obs := range list {
					label := obs.Taxon.Label()
					conf := "-"
					if obs.Consensus != nil {
						conf = confidenceText(*obs.Consensus)
					}
					rows = append(rows, []string{obs.ID, label, gradeText(out, obs.Grade), conf, obs.UpdatedAt.Local().Format("2006-01-02 15:04")})
				}
				fmt.Fprintln(out, renderTable([]string{"ID", "Taxon", "Grade", "Confidence", "Updated"}, rows, nil))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&gradeFlag, "grade", "", "Filter by grade (research, confirmed, needs_id, low_quality)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum observations to list")
	return cmd
}

func newObservationEvaluateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate <observation-id>",
		Short: "Recompute consensus for an observation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.Store) error {
				result, err := ctx.service(cfg, st, st).Evaluate(commandCtx(cmd), args[0])
				if err != nil {
					return err
				}
				return printResult(cmd, ctx, result)
			})
		},
	}
}

func newObservationStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count observations per grade",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.Store) error {
				counts, err := ctx.service(cfg, st, st).Stats(commandCtx(cmd))
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					bySlug := make(map[string]int, len(consensus.Grades))
					for _, g := range consensus.Grades {
						bySlug[g.Slug()] = counts[g]
					}
					return writeJSON(cmd, bySlug)
				}
				out := cmd.OutOrStdout()
				rows := make([][]string, 0, len(consensus.Grades))
				for _, g := range consensus.Grades {
					rows = append(rows, []string{gradeText(out, g), strconv.Itoa(counts[g])})
				}
				fmt.Fprintln(out, renderTable([]string{"Grade", "Observations"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}

func printResult(cmd *cobra.Command, ctx *commandContext, result consensus.Result) error {
	if ctx.JSONMode() {
		return writeJSON(cmd, result)
	}
	out := cmd.OutOrStdout()
	winner := "(none)"
	if result.Winner != nil && result.Winner.Taxon != nil {
		winner = result.Winner.Taxon.Label()
	}
	fmt.Fprintf(out, "Winner: %s\n", winner)
	fmt.Fprintf(out, "Grade: %s\n", gradeText(out, result.Grade))
	fmt.Fprintf(out, "Confidence: %s\n", confidenceText(result))
	fmt.Fprintf(out, "Quorum reached: %s (%d of %d)\n", yesNo(result.QuorumReached), result.AgreementsForWinner, result.TotalParticipants)
	return nil
}
