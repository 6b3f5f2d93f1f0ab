// Package claudesession runs Claude CLI sessions as child processes and
// streams their output as normalized events.
//
// An Engine creates, resumes and cancels sessions. Every CLI process is
// started in streaming JSON mode; its stdout is normalized into a small set
// of events (MessageStart, ContentDelta, MessageComplete, SessionIDUpdated
// and ErrorEvent) regardless of which output dialect the CLI version speaks.
//
// # Basic Usage
//
//	engine := claudesession.New(claudesession.WithModel("sonnet"))
//	defer engine.Shutdown(context.Background())
//
//	for env, err := range engine.Stream(ctx, claudesession.CreateRequest{
//	    Message:     "Summarize README.md",
//	    ProjectPath: "/home/me/project",
//	}) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    if d, ok := env.Event.(claudesession.ContentDelta); ok {
//	        fmt.Print(d.Delta)
//	    }
//	}
//
// # Session Keys
//
// Create returns a temporary key right away. Once the CLI announces the
// real session id, the engine publishes SessionIDUpdated under both keys
// and every later event is published under the real id. Cancel accepts
// either key.
//
// # Subscribing
//
// Subscribe and SubscribeAll deliver events through buffered channels.
// Publishing never blocks the stream reader: a subscriber that falls behind
// loses events. Events also land in a bounded journal readable with Events.
//
// # Error Handling
//
// Errors are typed and can be inspected with errors.AsType:
//
//	if _, ok := errors.AsType[*claudesession.CLINotFoundError](err); ok {
//	    // install the claude CLI
//	}
//
// # Logging
//
// Pass a *slog.Logger with WithLogger. Without one the engine is silent.
package claudesession
