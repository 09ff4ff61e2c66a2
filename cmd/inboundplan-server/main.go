package main

import (
	"github.com/fulfillkit/inboundplan/internal/cmd"
)

func main() {
	cmd.Execute()
}
