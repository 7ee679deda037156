package main

import (
	"log"

	"github.com/talenthub/ai-gateway/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
