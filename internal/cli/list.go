package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List memories, newest first",
		Run:   runList,
	}

	cmd.Flags().StringP("anchor", "a", "", "Only memories owned by this anchor")
	cmd.Flags().Bool("ids-only", false, "Only output memory ids")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	anchorID, _ := cmd.Flags().GetString("anchor")
	idsOnly, _ := cmd.Flags().GetBool("ids-only")

	g, err := openGarden()
	if err != nil {
		exitErr("open garden", err)
	}

	memories, err := g.service.List(cmd.Context())
	if err != nil {
		exitErr("list", err)
	}
	if anchorID != "" {
		memories, err = g.service.ListByAnchor(cmd.Context(), anchorID)
		if err != nil {
			exitErr("list", err)
		}
	}

	if idsOnly {
		for _, m := range memories {
			fmt.Println(m.ID)
		}
		return
	}

	b, _ := json.MarshalIndent(memories, "", "  ")
	fmt.Println(string(b))
}
