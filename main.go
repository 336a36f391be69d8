package main

import "gbbo-crawler/cmd"

func main() {
	cmd.Execute()
}
