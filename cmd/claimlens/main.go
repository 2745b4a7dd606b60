package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/okarpov/claimlens/internal/cli"
)

func main() {
	// A .env in the working directory supplies API keys during development;
	// missing file is not an error.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
