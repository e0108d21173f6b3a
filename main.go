package main

import "github.com/longkey1/codeqa/cmd"

func main() {
	cmd.Execute()
}
