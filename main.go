package main

import "github.com/agentic-research/tmplcheck/cmd"

func main() {
	cmd.Execute()
}
