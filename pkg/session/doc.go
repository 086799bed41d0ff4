/*
Package session owns the analysis session: the currently loaded program
graph plus the execution ledger recording which passes already ran on which
nodes.

Exactly one session is live at a time. The Manager serializes orchestration
requests against the session and swaps sessions atomically when a new
analysis starts.
*/
package session
