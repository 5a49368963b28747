// Package rootcmd wires the root cobra.Command for the searchctx CLI binary.
package rootcmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	checkcmd "github.com/go-ports/searchctx/cmd/searchctx/check"
	configcmd "github.com/go-ports/searchctx/cmd/searchctx/config"
	createcmd "github.com/go-ports/searchctx/cmd/searchctx/create"
	ctacmd "github.com/go-ports/searchctx/cmd/searchctx/cta"
	deletecmd "github.com/go-ports/searchctx/cmd/searchctx/delete"
	editcmd "github.com/go-ports/searchctx/cmd/searchctx/edit"
	eventscmd "github.com/go-ports/searchctx/cmd/searchctx/events"
	initcmd "github.com/go-ports/searchctx/cmd/searchctx/init"
	listcmd "github.com/go-ports/searchctx/cmd/searchctx/list"
	mcpcmd "github.com/go-ports/searchctx/cmd/searchctx/mcp"
	pickcmd "github.com/go-ports/searchctx/cmd/searchctx/pick"
	reposcmd "github.com/go-ports/searchctx/cmd/searchctx/repos"
	searchcmd "github.com/go-ports/searchctx/cmd/searchctx/search"
	selectcmd "github.com/go-ports/searchctx/cmd/searchctx/select"
	"github.com/go-ports/searchctx/cmd/searchctx/shared"
	showcmd "github.com/go-ports/searchctx/cmd/searchctx/show"
	"github.com/go-ports/searchctx/internal/buildinfo"
)

// New creates and returns the root cobra.Command for the searchctx CLI.
func New() *cobra.Command {
	ctx := &shared.Context{}

	root := &cobra.Command{
		Use:           "searchctx",
		Short:         "Select and manage code search contexts",
		Version:       buildinfo.Summary(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if ctx.Verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
		RunE: func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}

	root.PersistentFlags().StringVar(
		&ctx.Home, "home", "",
		"Override home directory (default: $SEARCHCTX_HOME env → persisted config → ~/.searchctx)",
	)
	root.PersistentFlags().BoolVarP(&ctx.Verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		initcmd.New(ctx).Cmd(),
		configcmd.New(ctx).Cmd(),
		createcmd.New(ctx).Cmd(),
		listcmd.New(ctx).Cmd(),
		showcmd.New(ctx).Cmd(),
		deletecmd.New(ctx).Cmd(),
		selectcmd.New(ctx).Cmd(),
		selectcmd.NewSelected(ctx).Cmd(),
		checkcmd.New(ctx).Cmd(),
		searchcmd.New(ctx).Cmd(),
		editcmd.New(ctx).Cmd(),
		ctacmd.New(ctx).Cmd(),
		reposcmd.New(ctx).Cmd(),
		eventscmd.New(ctx).Cmd(),
		pickcmd.New(ctx).Cmd(),
		mcpcmd.New(ctx).Cmd(),
	)

	return root
}
