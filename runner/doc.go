// Package runner is the engine's outer loop: it validates and trims the
// incoming conversation, drives the router, translates outcomes into the
// streaming event protocol and hands checklist tool calls to the background
// pipeline. One Run call produces exactly one terminal event.
package runner
