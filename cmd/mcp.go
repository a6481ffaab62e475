package cmd

import (
	internalApp "github.com/thingspace/thingspace-notes/internal/app"
	"github.com/thingspace/thingspace-notes/internal/mcp"

	"github.com/spf13/cobra"
)

func init() {
	var configPath string

	var mcpCommand = &cobra.Command{
		Use:   "mcp [-c config_file]",
		Short: "Serve note search tools over MCP stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			// stdout 留给 MCP 协议，日志只写文件
			a, cleanup, err := openApp(configPath, true)
			if err != nil {
				return err
			}
			defer cleanup()

			return mcp.NewNotesServer(a.NoteService, a.AccessService, internalApp.Name, internalApp.Version, a.Logger()).ServeStdio()
		},
	}

	rootCmd.AddCommand(mcpCommand)
	mcpCommand.Flags().StringVarP(&configPath, "config", "c", "", "config file")
}
