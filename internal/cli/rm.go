package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a memory and its media blobs",
		Args:  cobra.ExactArgs(1),
		Run:   runRm,
	}

	RootCmd.AddCommand(cmd)
}

func runRm(cmd *cobra.Command, args []string) {
	g, err := openGarden()
	if err != nil {
		exitErr("open garden", err)
	}

	deleted, err := g.service.Delete(cmd.Context(), args[0])
	if err != nil {
		exitErr("rm", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":%t,"id":%q}`+"\n", deleted, args[0])
}
