/*
Package ports defines the driven-side interfaces of the orchestrator core.

Adapters (redis, in-process) implement these so the core stays free of
infrastructure concerns.
*/
package ports
