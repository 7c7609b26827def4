package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/7c/pypm/internal/config"
	"github.com/7c/pypm/internal/display"
	"github.com/7c/pypm/internal/protocol"
	"github.com/7c/pypm/internal/sampler"
)

// historyCmd charts a process's sampled cpu/mem history from the
// daemon's on-disk log files. It is grounded on the teacher's chart
// rendering (internal/display/chart.go) and the sampler's append-only
// float64 log format (internal/sampler/sampler.go); since that format
// stores no timestamps, samples are plotted against the log_frequency
// from config, oldest sample first.
var metricFlag string

var historyCmd = &cobra.Command{
	Use:   "history <name>",
	Short: "Chart a process's sampled cpu/mem history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		home := protocol.PypmHome()
		result, err := config.Load(home, "")
		if err != nil {
			return err
		}
		resolved, _ := config.Resolve(result.Raw, home)

		var path, title string
		var axis func(float64) string
		switch metricFlag {
		case "mem":
			path = sampler.MemLogPath(resolved.LogDir, name)
			title = fmt.Sprintf("%s memory", name)
			axis = display.FormatMemoryAxis
		case "cpu", "":
			path = sampler.CPULogPath(resolved.LogDir, name)
			title = fmt.Sprintf("%s cpu", name)
			axis = display.FormatCPUAxis
		default:
			return fmt.Errorf("unknown metric %q, want cpu or mem", metricFlag)
		}

		samples, err := sampler.ReadSamples(path)
		if err != nil {
			return err
		}
		if len(samples) == 0 {
			fmt.Println("No samples recorded yet")
			return nil
		}

		interval := time.Minute
		if resolved.LogFrequency > 0 {
			interval = time.Duration(float64(time.Minute) / resolved.LogFrequency)
		}
		now := time.Now().Unix()
		points := make([]display.ChartPoint, len(samples))
		for i, v := range samples {
			age := time.Duration(len(samples)-1-i) * interval
			points[i] = display.ChartPoint{Time: now - int64(age.Seconds()), Value: v}
		}

		series := []display.ChartSeries{{Name: name, Points: points}}
		display.AssignSeriesColors(series)
		display.RenderChart(os.Stdout, display.ChartConfig{
			Title:      title,
			YFormatter: axis,
		}, series)
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVar(&metricFlag, "metric", "cpu", "metric to chart: cpu or mem")
}
