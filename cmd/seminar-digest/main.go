package main

import "github.com/helsinkigse/seminar-digest/internal/cli"

func main() {
	cli.Execute()
}
