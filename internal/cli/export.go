package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"memgarden/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Dump every memory and anchor as one JSON document",
		Run:   runExport,
	}

	RootCmd.AddCommand(cmd)
}

type gardenExport struct {
	Memories []model.Memory    `json:"memories"`
	Anchors  []model.AnchorRef `json:"anchors"`
}

func runExport(cmd *cobra.Command, args []string) {
	g, err := openGarden()
	if err != nil {
		exitErr("open garden", err)
	}

	memories, err := g.service.List(cmd.Context())
	if err != nil {
		exitErr("export", err)
	}
	anchors, err := g.anchors.GetAll(cmd.Context())
	if err != nil {
		exitErr("export", err)
	}

	b, _ := json.MarshalIndent(gardenExport{Memories: memories, Anchors: anchors}, "", "  ")
	fmt.Println(string(b))
}
