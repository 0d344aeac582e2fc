package main

import "github.com/oshokin/heartrate-fan/cmd/fan-servo-test/cmd"

func main() {
	cmd.Execute()
}
