package main

import (
	"casetrack-backend/cmd/casetrack/commands"
	"casetrack-backend/lib/osutil"
)

func main() {
	commands.ExecuteContext(osutil.SignalContext())
}
