package main

import (
	"github.com/lshigami/mockdrive/internal/dto"
	"github.com/lshigami/mockdrive/internal/service"
	"github.com/spf13/cobra"
)

var reapCmd = &cobra.Command{
	Use:   "reap",
	Short: "Expire every attempt past its deadline once",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd.Context(), func(reaper *service.Reaper) error {
			n, err := reaper.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(dto.ReapResponse{Expired: n})
		})
	},
}
