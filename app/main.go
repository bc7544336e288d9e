package main

import "github.com/stagehand-io/stagehand/app/cmd"

func main() {
	cmd.Execute()
}
