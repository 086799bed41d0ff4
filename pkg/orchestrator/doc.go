/*
Package orchestrator runs analysis passes incrementally against a live
session.

Given a pass ID and an anchor node ID, it orders the pass and its transitive
hard dependencies into waves, resolves the concrete target nodes for each
pass, skips work the session ledger already records, dispatches the rest
(applying language overrides), and reports either the full execution log or
the first failure together with the partial log. Completed work is never
rolled back; re-issuing a failed request skips everything that already ran.
*/
package orchestrator
