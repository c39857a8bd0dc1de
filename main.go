package main

import "github.com/dzjyyds666/userconf/cmd"

func main() {
	cmd.Execute()
}
