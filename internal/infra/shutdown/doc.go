// Package shutdown runs cleanup hooks when a long-running command stops.
//
// A Handler waits for SIGINT/SIGTERM or for its context to end, then runs
// the registered hooks in reverse registration order under a timeout:
//
//	h := shutdown.NewHandler(5 * time.Second)
//	h.OnShutdown(func(ctx context.Context) error { return srv.Shutdown(ctx) })
//	err := h.Wait(ctx)
package shutdown
