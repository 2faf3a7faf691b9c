package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/tokgate/internal/cli/output"
	"github.com/yndnr/tokgate/internal/infra/buildinfo"
)

// VersionCommand prints build information.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(c *cli.Context) error {
			format, err := output.ParseFormat(c.String("output"))
			if err != nil {
				return err
			}
			if format == output.FormatTable {
				_, err := c.App.Writer.Write([]byte(buildinfo.String() + "\n"))
				return err
			}
			return output.NewFormatter(format, false).Format(c.App.Writer, buildinfo.Get())
		},
	}
}
