package main

import "github.com/vietddude/submitter/internal/cli"

func main() {
	cli.Execute()
}
