// Package pkg provides the libraries behind gitdraw, a drawing tool for
// git-style commit histories.
//
// # Overview
//
// A history view is a small commit graph with branch tags and a HEAD
// pointer. Operations (commit, branch, checkout, reset) change it, the
// layout places every commit on a grid, and renderers draw the result.
// The pkg directory is organized as:
//
//  1. [history] - the view and its operations
//  2. [layout] - commit placement and label geometry
//  3. [graph] - positioned scenes handed to renderers
//  4. [command] - the git-like command language
//  5. [render] - SVG, Graphviz, PNG and PDF output
//  6. [config] - TOML view files
//  7. [pipeline] - build then render, with caching
//  8. [cache], [session] - artifact and session storage
//
// # Data Flow
//
//	view file (TOML) + script
//	         ↓
//	    [history] (replay operations, lay out)
//	         ↓
//	    [graph] scene
//	         ↓
//	    [render] (svg, nodelink, png, pdf)
//
// # Quick Start
//
//	f, _ := config.Load("demo.toml")
//	repo, _ := f.Open()
//	defer repo.Close()
//
//	command.Run(repo, "git checkout -b feature")
//	command.Run(repo, "git commit")
//
//	out := svg.Render(repo.Scene())
//
// The [pipeline] package wraps these steps with caching:
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	result, err := runner.Execute(ctx, f, pipeline.Options{Formats: []string{"svg", "png"}})
//
// [history]: github.com/matzehuels/gitdraw/pkg/history
// [layout]: github.com/matzehuels/gitdraw/pkg/layout
// [graph]: github.com/matzehuels/gitdraw/pkg/graph
// [command]: github.com/matzehuels/gitdraw/pkg/command
// [render]: github.com/matzehuels/gitdraw/pkg/render
// [config]: github.com/matzehuels/gitdraw/pkg/config
// [pipeline]: github.com/matzehuels/gitdraw/pkg/pipeline
// [cache]: github.com/matzehuels/gitdraw/pkg/cache
// [session]: github.com/matzehuels/gitdraw/pkg/session
package pkg
