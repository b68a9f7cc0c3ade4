package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/edukit/coachai-go/internal/agent"
)

// NewAgentsCmd constructs the `coachai agents` subcommand, which lists the
// available coaching personas and the documents each one draws on.
func NewAgentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List the available coaching personas",
		Run: func(cmd *cobra.Command, args []string) {
			for _, a := range agent.NewRegistry().List() {
				fmt.Printf("%s\t%s\n", a.ID, a.Name)
				fmt.Printf("\t%s\n", a.Description)
			}
		},
	}
}
