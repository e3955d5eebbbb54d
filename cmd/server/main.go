package main

import (
	"log"

	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/transport/http"
)

func main() {
	if err := http.Run(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
