package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()

	if err := newRootCmd(envErr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
