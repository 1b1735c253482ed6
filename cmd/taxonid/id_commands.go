package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"taxonid/internal/identification"
	"taxonid/internal/observation"
	"taxonid/internal/services"
	"taxonid/internal/store"
	"taxonid/internal/taxon"
)

func newIdentificationCommand(ctx *commandContext) *cobra.Command {
	idCmd := &cobra.Command{
		Use:     "id",
		Aliases: []string{"identification"},
		Short:   "Propose, agree with, dispute or withdraw identifications",
	}
	idCmd.AddCommand(newIdentificationProposeCommand(ctx))
	idCmd.AddCommand(newIdentificationAgreeCommand(ctx))
	idCmd.AddCommand(newIdentificationDisagreeCommand(ctx))
	idCmd.AddCommand(newIdentificationWithdrawCommand(ctx))
	return idCmd
}

// idFlags are the flags shared by the identification subcommands.
type idFlags struct {
	user     string
	remote   bool
	selector taxonSelector
	comment  string
}

func (f *idFlags) bindUser(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.user, "user", "u", "", "Acting user (required)")
	_ = cmd.MarkFlagRequired("user")
}

func (f *idFlags) bindTaxon(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.selector.id, "taxon-id", "", "Catalog taxon id")
	cmd.Flags().StringVar(&f.selector.name, "name", "", "Exact scientific name")
	cmd.Flags().BoolVar(&f.remote, "remote", false, "Look names up through the remote search service")
	cmd.Flags().StringVar(&f.comment, "comment", "", "Comment shown with the identification")
}

type idAction func(st *store.Store, svc *observation.Service, searcher taxon.Searcher) (observation.Change, error)

// runIdentification opens the store, builds the service and prints the
// change produced by action.
func runIdentification(cmd *cobra.Command, ctx *commandContext, remote bool, action idAction) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	return ctx.withStore(func(st *store.Store) error {
		searcher, err := ctx.searcher(st, remote)
		if err != nil {
			return err
		}
		change, err := action(st, ctx.service(cfg, st, searcher), searcher)
		if err != nil {
			return err
		}
		return printChange(cmd, ctx, change)
	})
}

func newIdentificationProposeCommand(ctx *commandContext) *cobra.Command {
	var flags idFlags
	cmd := &cobra.Command{
		Use:   "propose <observation-id>",
		Short: "Propose a taxon for an observation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIdentification(cmd, ctx, flags.remote, func(st *store.Store, svc *observation.Service, searcher taxon.Searcher) (observation.Change, error) {
				rec, err := flags.selector.resolve(commandCtx(cmd), st, searcher)
				if err != nil {
					return observation.Change{}, err
				}
				return svc.Propose(commandCtx(cmd), args[0], flags.user, rec, flags.comment)
			})
		},
	}
	flags.bindUser(cmd)
	flags.bindTaxon(cmd)
	return cmd
}

func newIdentificationAgreeCommand(ctx *commandContext) *cobra.Command {
	var flags idFlags
	cmd := &cobra.Command{
		Use:   "agree <observation-id> <identification-id>",
		Short: "Agree with an identification",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIdentification(cmd, ctx, false, func(_ *store.Store, svc *observation.Service, _ taxon.Searcher) (observation.Change, error) {
				return svc.Agree(commandCtx(cmd), args[0], flags.user, args[1])
			})
		},
	}
	flags.bindUser(cmd)
	return cmd
}

func newIdentificationDisagreeCommand(ctx *commandContext) *cobra.Command {
	var flags idFlags
	cmd := &cobra.Command{
		Use:   "disagree <observation-id> <identification-id>",
		Short: "Dispute an identification with a competing taxon and a comment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIdentification(cmd, ctx, flags.remote, func(st *store.Store, svc *observation.Service, searcher taxon.Searcher) (observation.Change, error) {
				ids, err := st.ListIdentifications(commandCtx(cmd), args[0])
				if err != nil {
					return observation.Change{}, err
				}
				idx := identification.Find(ids, args[1])
				if idx < 0 {
					return observation.Change{}, services.Wrap(identification.ErrNotFound, "id", "disagree",
						fmt.Sprintf("identification %q on observation %q", args[1], args[0]), nil)
				}
				rec, err := flags.selector.resolve(commandCtx(cmd), st, searcher)
				if err != nil {
					return observation.Change{}, err
				}
				draft := identification.NewDraft(ids[idx], flags.user)
				draft.Taxon = &rec
				draft.Comment = flags.comment
				return svc.Disagree(commandCtx(cmd), args[0], draft)
			})
		},
	}
	flags.bindUser(cmd)
	flags.bindTaxon(cmd)
	_ = cmd.MarkFlagRequired("comment")
	return cmd
}

func newIdentificationWithdrawCommand(ctx *commandContext) *cobra.Command {
	var flags idFlags
	cmd := &cobra.Command{
		Use:   "withdraw <observation-id> <identification-id>",
		Short: "Withdraw one of your identifications",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIdentification(cmd, ctx, false, func(_ *store.Store, svc *observation.Service, _ taxon.Searcher) (observation.Change, error) {
				return svc.Withdraw(commandCtx(cmd), args[0], flags.user, args[1])
			})
		},
	}
	flags.bindUser(cmd)
	return cmd
}

func printChange(cmd *cobra.Command, ctx *commandContext, change observation.Change) error {
	if ctx.JSONMode() {
		return writeJSON(cmd, change)
	}
	out := cmd.OutOrStdout()
	if change.Identification != nil {
		fmt.Fprintf(out, "Identification: %s (%s)\n", change.Identification.ID, change.Identification.State())
	}
	for _, id := range change.Superseded {
		fmt.Fprintf(out, "Withdrew earlier identification: %s\n", id)
	}
	return printResult(cmd, ctx, change.Result)
}
