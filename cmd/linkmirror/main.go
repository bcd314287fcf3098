package main

import (
	"log"

	"github.com/linkmirror/linkmirror/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("❌ linkmirror failed to start: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("❌ linkmirror exited with error: %v", err)
	}
}
