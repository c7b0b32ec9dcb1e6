package main

import (
	"os"

	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
