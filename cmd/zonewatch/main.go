package main

import (
	"log"

	"github.com/MrSnakeDoc/zonewatch/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ zonewatch failed to start: %v", err)
	}
}
