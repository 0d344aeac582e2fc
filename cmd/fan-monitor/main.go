package main

import "github.com/oshokin/heartrate-fan/cmd/fan-monitor/cmd"

func main() {
	cmd.Execute()
}
