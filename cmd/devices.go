package cmd

import (
	"fmt"
	"io"
	"runtime"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Raikerian/go-discord-dj/internal/config"
	"github.com/Raikerian/go-discord-dj/internal/device"
	"github.com/Raikerian/go-discord-dj/internal/infrastructure"
)

func devicesCommand(configFile *string) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List audio devices that can be relayed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Listing does not need Discord credentials, so the config is not validated.
			v, err := config.New(*configFile)
			if err != nil {
				return err
			}
			logger, err := infrastructure.NewLogger(v.GetString("log_level"))
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			e := device.NewEnumeratorFor(runtime.GOOS, v.GetString("audio.ffmpeg_path"),
				device.NewExecRunner(), device.NewMalgoLoopbackLister(), logger.WithOptions(zap.IncreaseLevel(zap.WarnLevel)))
			devices, err := e.EnumerateDevices(cmd.Context())
			if err != nil {
				return err
			}
			return writeDevices(cmd.OutOrStdout(), devices, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table or yaml")
	return cmd
}

func writeDevices(w io.Writer, devices []device.AudioDevice, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(devices); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		if len(devices) == 0 {
			_, err := fmt.Fprintln(w, "No audio devices found.")
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "INDEX\tNAME\tKIND\tDEFAULT\tID")
		for _, d := range devices {
			def := ""
			if d.Default {
				def = "*"
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", d.Index, d.Name, d.Kind, def, d.ID)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
