package main

import "github.com/user/netaudit/cmd"

func main() {
	cmd.Execute()
}
