package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/xpanvictor/somniatrack/internal/domains/sleep"
	"github.com/xpanvictor/somniatrack/pkg/client"
)

func init() {
	rootCmd.AddCommand(classifyCmd, predictCmd, healthCmd)
}

var classifyCmd = &cobra.Command{
	Use:   "classify <file>",
	Short: "Classify an audio clip locally, without the API",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read audio: %w", err)
		}
		result, err := sleep.Classify(raw, filepath.Base(args[0]))
		if err != nil {
			return err
		}
		return printJSON(cmd, result)
	},
}

var predictCmd = &cobra.Command{
	Use:   "predict <file>",
	Short: "Upload an audio clip to a running API",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open audio: %w", err)
		}
		defer f.Close()

		c := client.New(apiURL, apiTimeout)
		p, err := c.Predict(cmd.Context(), filepath.Base(args[0]), f)
		if err != nil {
			return err
		}
		return printJSON(cmd, p)
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the API is up",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(apiURL, apiTimeout)
		ok, err := c.Health(cmd.Context())
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s reported unhealthy", apiURL)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is healthy\n", apiURL)
		return nil
	},
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
