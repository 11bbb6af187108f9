package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Retrieve a memory",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	}

	cmd.Flags().Bool("resolve-media", false, "Output absolute media paths")

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	resolveMedia, _ := cmd.Flags().GetBool("resolve-media")

	g, err := openGarden()
	if err != nil {
		exitErr("open garden", err)
	}

	m, err := g.service.Get(cmd.Context(), args[0])
	if err != nil {
		exitErr("get", err)
	}

	if resolveMedia {
		if m.PhotoPath != "" {
			m.PhotoPath = g.blobs.Resolve(m.PhotoPath)
		}
		if m.AudioPath != "" {
			m.AudioPath = g.blobs.Resolve(m.AudioPath)
		}
	}

	b, _ := json.MarshalIndent(m, "", "  ")
	fmt.Println(string(b))
}
