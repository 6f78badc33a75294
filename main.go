package main

import "github.com/jinook0707/cremerGroupApp-sub000/cmd"

func main() {
	cmd.Execute()
}
