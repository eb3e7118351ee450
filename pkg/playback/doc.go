/*
Package playback replays a finished trace one snapshot at a time.

A Controller owns an index into an immutable domain.Trace and an optional
auto-play timer. It is the server-side twin of the step/back/reset/auto
buttons of the web page: every index change is pushed to a Renderer.

Controllers never mutate the trace, so any number of them may share one.
*/
package playback
