package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"memgarden/internal/worldmap"
)

func init() {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show garden statistics",
		Run:   runStatus,
	}

	RootCmd.AddCommand(cmd)
}

type gardenStatus struct {
	DataDir     string `json:"data_dir"`
	Memories    int    `json:"memories"`
	Anchors     int    `json:"anchors"`
	HasSnapshot bool   `json:"has_tracking_snapshot"`
}

func runStatus(cmd *cobra.Command, args []string) {
	g, err := openGarden()
	if err != nil {
		exitErr("open garden", err)
	}

	memories, err := g.service.List(cmd.Context())
	if err != nil {
		exitErr("status", err)
	}
	anchors, err := g.anchors.GetAll(cmd.Context())
	if err != nil {
		exitErr("status", err)
	}
	snapshots := worldmap.NewFileSnapshotStore(g.dir, logger)

	b, _ := json.MarshalIndent(gardenStatus{
		DataDir:     g.dir,
		Memories:    len(memories),
		Anchors:     len(anchors),
		HasSnapshot: snapshots.Exists(),
	}, "", "  ")
	fmt.Println(string(b))
}
