package main

import (
	"mediahub/cmd/hubctl/commands"
	"mediahub/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
