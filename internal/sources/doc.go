// Package sources provides the platform source adapters and their registry.
//
// Every platform (reddit, youtube, instagram, mastodon) is exposed through
// the uniform Adapter contract: GetConfig, TestConnection, PerformScan, and
// GetHistoricalStats. Platform-specific concerns stay behind that contract:
// payload parsing, credential handling, and retry/backoff for transient
// network failures all live here, never in the orchestrator.
//
// Adapters record every scan outcome into the history service, which is
// where GetHistoricalStats reads from.
package sources
