package main

import "github.com/BioHazard786/onair/internal/logging"

func main() {
	logging.InitCLI()
	Execute()
}
