/*
Package runner drives a journey from the command line.

The Runner steps a started journey until it finishes and reports every hop to a
Handler. Two handlers are provided: TextHandler prints a human readable trail
(optionally rendered as markdown) and JSONHandler emits one JSON event per line.
An interrupt (Ctrl-C or SIGTERM) cancels the journey instead of killing the process,
so the trail so far is still reported with the cancelled outcome.

# Usage

	j, err := engine.Begin(ctx, "Cat")
	if err != nil {
		return err
	}
	r := runner.NewRunner(runner.WithHandler(runner.NewJSONHandler(os.Stdout)))
	state, err := r.Run(ctx, j)
*/
package runner
