package main

import (
	"os"

	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
