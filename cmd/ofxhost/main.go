// Command ofxhost loads effect plugin schemas, evaluates parameters and runs
// host scenarios. See "ofxhost help" for the command list.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/ofxhost/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := cli.NewRootCommand().ExecuteContext(ctx)
	if err != nil && !cli.IsReported(err) {
		fmt.Fprintln(os.Stderr, err)
	}
	stop()
	os.Exit(cli.GetExitCode(err))
}
