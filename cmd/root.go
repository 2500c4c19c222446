// Package cmd wires the scolarité chatbot's command-line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "scolarite",
	Short: "Assistant scolarité TSM - web chatbot for the registrar office",
	Long: `scolarite serves the TSM registrar-office chatbot: a static chat page
plus a /chat endpoint that forwards conversations to the Groq API with
the official reference documents embedded in the system prompt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
