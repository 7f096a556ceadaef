package main

import "github.com/MeKo-Tech/isbnx/cmd/isbnx/cmd"

func main() {
	cmd.Execute()
}
