package cli

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/province"
)

func provinceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "province <plate text...>",
		Short: "Print the province and region found in plate text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			return enc.Encode(province.Analyze(strings.Join(args, " ")))
		},
	}
}
