package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mkvkeep/internal/resources"
)

func newResourcesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "Sample the host and show the parallelism a run would use",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			sizer := resources.NewSizer(resources.NewHostSampler(cfg.Resources.CPUSampleMillis), cfg.Resources)
			plan, snapshot, err := sizer.Compute(cmd.Context())
			if err != nil {
				return fmt.Errorf("sample host: %w", err)
			}
			limits := sizer.Limits()
			rows := [][]string{
				{"CPU cores", strconv.Itoa(snapshot.Cores)},
				{"CPU load", fmt.Sprintf("%.1f%%", snapshot.CPULoad*100)},
				{"Total memory", humanize.IBytes(snapshot.TotalMemory)},
				{"Available memory", humanize.IBytes(snapshot.AvailableMemory)},
				{"Memory per job", humanize.IBytes(limits.MemoryPerJob)},
				{"CPU cap", strconv.Itoa(plan.CPUCap)},
				{"Memory cap", strconv.Itoa(plan.MemoryCap)},
				{"Load cap", strconv.Itoa(plan.LoadCap)},
				{"Bounds", fmt.Sprintf("%d-%d", limits.MinProcesses, limits.MaxProcesses)},
				{"Parallelism", strconv.Itoa(plan.Parallelism)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Resource", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
}
