package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var carriersCmd = &cobra.Command{
	Use:   "carriers",
	Short: "List supported carrier statement formats",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range newRegistry().AllNames() {
			fmt.Println(name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(carriersCmd)
}
