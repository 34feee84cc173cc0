package main

import "interviewrag/cmd"

func main() {
	cmd.Execute()
}
