// Copyright © 2024 Gjorgji J.

package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	managementGroup = &cobra.Group{
		ID:    "management",
		Title: "Management Commands:",
	}
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "registry-tag-cleaner",
	Short: "A cli tool for cleaning old tags from container registries.",
	Long: `A cli tool for cleaning old tags from container registries.

It recovers a build timestamp from generated tag names, keeps a minimum
number of tags per image and never touches tags younger than the grace period.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add command groups to the root command
	rootCmd.AddGroup(managementGroup)

	// Assign commands to groups
	cleanCmd.GroupID = managementGroup.ID
}
