// Package main is the entry point for the taskflowctl admin tool.
package main

import (
	"github.com/yukikurage/taskflow-api/internal/cmd"
)

func main() {
	cmd.Execute()
}
