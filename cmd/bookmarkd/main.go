package main

import (
	"log"

	"github.com/MrSnakeDoc/bookmarkd/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("❌ bookmarkd failed to initialize: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("❌ bookmarkd failed to start: %v", err)
	}
}
