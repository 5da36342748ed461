package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mkvkeep/internal/catalog"
)

func newTracksCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tracks <file>",
		Short: "List the tracks of a file as mkvkeep classifies them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			reader, _, err := ctx.catalogReader(logger)
			if err != nil {
				return err
			}
			cat, err := reader.Read(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderCatalog(cat))
			return nil
		},
	}
}

func renderCatalog(cat *catalog.Catalog) string {
	groups := make(map[int][]string)
	for _, t := range cat.SourceAudio() {
		groups[t.ID] = append(groups[t.ID], "source audio")
	}
	for _, t := range cat.RemovableAudio() {
		groups[t.ID] = append(groups[t.ID], "dub")
	}
	for _, t := range cat.TargetSubtitles() {
		groups[t.ID] = append(groups[t.ID], "target subtitle")
	}

	rows := make([][]string, 0, len(cat.Tracks))
	for _, t := range cat.Tracks {
		rows = append(rows, []string{
			strconv.Itoa(t.ID),
			t.Type,
			t.LanguageName(),
			t.Codec,
			t.DisplayName(),
			yesNo(t.Default),
			strings.Join(groups[t.ID], ", "),
		})
	}
	return renderTable(
		[]string{"ID", "Type", "Language", "Codec", "Name", "Default", "Group"},
		rows,
		[]columnAlignment{alignRight},
	)
}
