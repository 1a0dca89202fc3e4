// Package history models a teaching-sized version-control history: commits
// with a single parent, branch refs, and HEAD.
//
// # Overview
//
// A [Repository] owns three pieces of state:
//
//   - a [Store] with the commits in insertion order plus the synthetic root
//     commit "initial"
//   - the current branch, or none when HEAD is detached
//   - the registry of known branch names, which always contains HEAD
//
// Every mutating operation ([Repository.Commit], [Repository.Branch],
// [Repository.Checkout], [Repository.Reset]) validates its input first, then
// mutates, then recomputes the layout with the layout package and hands the
// resulting graph.Scene to the configured [Renderer] before returning. A
// failed operation leaves the repository exactly as it was.
//
// # Refs
//
// A ref is a name in exactly one commit's tag list. Moving a ref removes it
// from its holder and appends it to the target inside a single call, so no
// observer ever sees a ref on two commits or on none.
//
// Refs are resolved by trying two lookups in order: commit id, then tag
// name. When a tag name equals some commit's id, the id wins.
//
// # Usage
//
//	repo, err := history.New(history.Config{CurrentBranch: "master"})
//	if err != nil {
//	    return err
//	}
//	repo.Commit(history.CommitData{})   // master → new commit, HEAD follows
//	repo.Branch("dev")                  // dev points at HEAD's commit
//	repo.Checkout("dev")                // HEAD attached to dev
//	scene := repo.Scene()               // positioned snapshot for drawing
//
// # Concurrency
//
// A Repository is not safe for concurrent use. Callers with several event
// sources must funnel operations through one goroutine or a lock, as the
// server package does.
package history
