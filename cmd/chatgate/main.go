package main

import "github.com/nfrund/chatgate/cmd/chatgate/cmd"

func main() {
	cmd.Execute()
}
