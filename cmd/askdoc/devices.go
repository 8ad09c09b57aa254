package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/askdoc/internal/audio"
)

var recorderCommand string

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio capture devices",
	RunE: func(cmd *cobra.Command, _ []string) error {
		listing, err := audio.ListDevices(cmd.Context(), recorderCommand)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), listing)
		return nil
	},
}

func init() {
	devicesCmd.Flags().StringVar(&recorderCommand, "recorder", "arecord", "recorder tooling used to enumerate devices")
	rootCmd.AddCommand(devicesCmd)
}
