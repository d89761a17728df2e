package main

import (
	"fmt"
	"os"

	"github.com/iamMichaelSmith/Youtube-MP3-Converter/cmd/server/commands"
)

func main() {
	rootCmd := commands.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
