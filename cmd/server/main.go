package main

import (
	"log"

	"github.com/JaimeStill/accord/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed: ", err)
	}

	srv, err := NewServer(cfg)
	if err != nil {
		log.Fatal("server init failed: ", err)
	}

	if err := srv.Run(); err != nil {
		log.Fatal(err)
	}
}
