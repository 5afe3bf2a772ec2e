package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/stylebuilder/cmd/stylebuilder/commands"
	serrors "git.home.luguber.info/inful/stylebuilder/internal/errors"
	"git.home.luguber.info/inful/stylebuilder/internal/version"
)

func main() {
	cli := &commands.CLI{}
	ctx := kong.Parse(cli,
		kong.Name("stylebuilder"),
		kong.Description("Compile Sass and SCSS stylesheets with the external sass compiler."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	global := &commands.Global{Logger: slog.Default()}
	err := ctx.Run(global, cli)
	serrors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(err)
}
