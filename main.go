package main

import "github.com/Digital-Shane/title-sieve/internal/cmd"

func main() {
	cmd.Execute()
}
