package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/easy-dataset/easy-dataset/cmd/service"
)

func main() {
	root := &cobra.Command{
		Use:   "easy-dataset",
		Short: "easy-dataset task service",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("empty command, use `service` or `process`")
		},
	}

	root.AddCommand(service.NewCommand(), service.NewProcessCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
