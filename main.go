package main

import "github.com/Tiliavir/trivial-toggl-viewer/cmd"

func main() {
	cmd.Execute()
}
