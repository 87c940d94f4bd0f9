package main

import (
	"log"

	"github.com/goinginblind/lso-gateway/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("Failed to start the gateway: %v", err)
	}
	a.Run()
}
