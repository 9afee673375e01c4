package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"lrcSuite/config"
)

var initConfigOutPath string

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write the built-in Botlek setup as YAML config",
	RunE: func(cmd *cobra.Command, args []string) error {
		outPath, err := defaultCreateCollisionFreeName(initConfigOutPath)
		if err != nil {
			return fmt.Errorf("failed to find name for config : %w", err)
		}
		if err := config.Default().Save(outPath); err != nil {
			return err
		}
		logger.Info("stored config", zap.String("path", outPath))
		return nil
	},
}

func init() {
	initConfigCmd.Flags().StringVar(&initConfigOutPath, "out", "lrcSuite.yaml", "output file. A numeric suffix is added if it exists")
}
