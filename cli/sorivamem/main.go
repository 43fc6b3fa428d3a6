package main

import (
	"os"

	sorivamemcmder "github.com/Aman3189/soriva-backend-sub004/cmd/sorivamem"
)

func main() {
	cmd := sorivamemcmder.NewSorivamemCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
