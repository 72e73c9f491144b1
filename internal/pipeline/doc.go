// Package pipeline drives incremental risk annotation of one text buffer.
//
// Every Edit restarts the cycle Idle -> PendingGate -> Classifying ->
// Rendered. The change gate decides whether the classifier is called at
// all; near-duplicate edits are served from the shared result cache. A
// classification runs in its own goroutine and is represented by a Task.
// When it completes, its result is cached, but it is only rendered if the
// buffer still holds the text it was computed for. Classification failures
// fail open: an empty frame carrying the error is rendered and the user is
// never blocked.
package pipeline
