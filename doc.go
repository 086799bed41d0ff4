/*
Package cpg provides an incremental pass-execution orchestrator for code
property graphs.

Analysis requests arrive one at a time, each naming a pass and an anchor
node of an already-built program graph. The engine orders the pass's hard
dependencies into waves, finds the concrete nodes each pass must run
against, skips work recorded in the session ledger, and dispatches the
rest, applying per-language pass overrides. Each (node, pass) pair runs at
most once per session, which keeps re-issued requests cheap.

# Usage

	eng, err := cpg.New()
	if err != nil {
		log.Fatal(err)
	}

	if err := eng.LoadGraph(ctx, "./project.yaml"); err != nil {
		log.Fatal(err)
	}

	res, err := eng.RunPass(ctx, "dfg", "main.go")
	for _, ex := range res.Executed {
		fmt.Println(ex.PassID, ex.Message)
	}

Front-ends that build graphs in memory hand them over with UseGraph, which
atomically replaces the previous session and resets the ledger.
*/
package cpg
