package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	anchorsCmd := &cobra.Command{
		Use:   "anchors",
		Short: "Manage durable anchor references",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List anchor references",
		Run:   runAnchorsList,
	}

	rmCmd := &cobra.Command{
		Use:   "rm <anchor-id>",
		Short: "Delete an anchor reference",
		Long:  "Delete an anchor reference. Memories owned by the anchor are kept unless --prune is given.",
		Args:  cobra.ExactArgs(1),
		Run:   runAnchorsRm,
	}
	rmCmd.Flags().Bool("prune", false, "Also delete memories owned by the anchor")

	anchorsCmd.AddCommand(listCmd, rmCmd)
	RootCmd.AddCommand(anchorsCmd)
}

func runAnchorsList(cmd *cobra.Command, args []string) {
	g, err := openGarden()
	if err != nil {
		exitErr("open garden", err)
	}

	anchors, err := g.anchors.GetAll(cmd.Context())
	if err != nil {
		exitErr("anchors list", err)
	}

	b, _ := json.MarshalIndent(anchors, "", "  ")
	fmt.Println(string(b))
}

func runAnchorsRm(cmd *cobra.Command, args []string) {
	prune, _ := cmd.Flags().GetBool("prune")
	anchorID := args[0]

	g, err := openGarden()
	if err != nil {
		exitErr("open garden", err)
	}

	pruned := 0
	if prune {
		owned, err := g.service.ListByAnchor(cmd.Context(), anchorID)
		if err != nil {
			exitErr("anchors rm", err)
		}
		for _, m := range owned {
			if _, err := g.service.Delete(cmd.Context(), m.ID); err != nil {
				exitErr("anchors rm", err)
			}
			pruned++
		}
	}

	deleted, err := g.anchors.Delete(cmd.Context(), anchorID)
	if err != nil {
		exitErr("anchors rm", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":%t,"anchor_id":%q,"pruned":%d}`+"\n", deleted, anchorID, pruned)
}
