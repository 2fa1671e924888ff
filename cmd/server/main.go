package main

import "github.com/courtyard-app/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}
