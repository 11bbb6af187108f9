package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"memgarden/internal/memory"
	"memgarden/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a memory",
		Long:  "Add a memory record. Media files are copied into the garden's blob store.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runAdd,
	}

	cmd.Flags().String("note", "", "Free-text note")
	cmd.Flags().StringP("anchor", "a", "", "Owning anchor id")
	cmd.Flags().String("photo", "", "Path to a photo file (max 2 MiB)")
	cmd.Flags().String("audio", "", "Path to an audio file (max 1.5 MiB)")
	cmd.Flags().Float32Slice("pos", nil, "Pose offset position as x,y,z")

	RootCmd.AddCommand(cmd)
}

func runAdd(cmd *cobra.Command, args []string) {
	note, _ := cmd.Flags().GetString("note")
	anchorID, _ := cmd.Flags().GetString("anchor")
	photoFile, _ := cmd.Flags().GetString("photo")
	audioFile, _ := cmd.Flags().GetString("audio")
	pos, _ := cmd.Flags().GetFloat32Slice("pos")

	title := strings.Join(args, " ")

	var photo, audio []byte
	var err error
	if photoFile != "" {
		photo, err = os.ReadFile(photoFile)
		if err != nil {
			exitErr("read photo", err)
		}
	}
	if audioFile != "" {
		audio, err = os.ReadFile(audioFile)
		if err != nil {
			exitErr("read audio", err)
		}
	}

	position := model.Vec3{}
	if len(pos) == 3 {
		position = model.Vec3{X: pos[0], Y: pos[1], Z: pos[2]}
	} else if len(pos) != 0 {
		exitErr("add", fmt.Errorf("--pos wants exactly 3 values, got %d", len(pos)))
	}

	g, err := openGarden()
	if err != nil {
		exitErr("open garden", err)
	}

	m, err := g.service.Add(cmd.Context(), memory.AddParams{
		Title:    title,
		Note:     note,
		AnchorID: anchorID,
		Position: position,
		Rotation: model.IdentityQuat(),
		Photo:    photo,
		Audio:    audio,
	})
	if err != nil {
		exitErr("add", err)
	}

	b, _ := json.MarshalIndent(m, "", "  ")
	fmt.Println(string(b))
}
