package httpapi

import "context"

// serverBaseCtx is canceled on daemon shutdown so in-flight handlers stop.
// It defaults to Background until SetBaseContext installs the real one.
var serverBaseCtx = context.Background()

// SetBaseContext installs the process-level base context used by handlers.
// A nil ctx resets to Background.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	serverBaseCtx = ctx
}

// joinContexts derives a context that is canceled as soon as either parent
// is done. The cancel func releases the watchers and must always be called.
func joinContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	stopA := context.AfterFunc(a, cancel)
	stopB := context.AfterFunc(b, cancel)
	return ctx, func() {
		stopA()
		stopB()
		cancel()
	}
}
