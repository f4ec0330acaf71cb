package main

import "github.com/goliatone/go-formbuilder/internal/cli"

func main() {
	cli.Execute()
}
