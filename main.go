package main

import (
	"github.com/smart715/jobsify/cmd"
)

func main() {
	cmd.Execute()
}
