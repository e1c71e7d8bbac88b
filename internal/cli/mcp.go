package cli

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the annotator tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			_, c, done, err := a.openSession(ctx, true)
			if err != nil {
				return err
			}
			defer done()

			srv := mcp.NewServer(&mcp.Implementation{Name: "annotator", Version: version}, nil)
			c.RegisterMCP(srv)
			a.logger.Info("cli: mcp serving on stdio", "page", c.PageURL())
			return waitDone(srv.Run(ctx, &mcp.StdioTransport{}))
		},
	}
}
