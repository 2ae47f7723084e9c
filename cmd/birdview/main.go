package main

import (
	"github.com/overland-robotics/birdview/cmd/birdview/cmd"
)

func main() {
	cmd.Execute()
}
