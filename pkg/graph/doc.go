// Package graph provides the serialization types for positioned commit graphs.
//
// This package defines the wire format handed from the history state machine
// to renderers, the HTTP API and the artifact cache:
//
//   - [Scene]: one complete, positioned snapshot of a history view
//   - [Commit]: a commit record with its computed center
//   - [Pointer]: the anchor points of a commit-to-parent line
//   - [Tag]: a placed ref label
//
// A Scene is plain data. It is produced by history.Repository.Scene after
// every layout pass and never refers back to the repository, so it can be
// stored, diffed or rendered after the repository has moved on.
//
// # Serialization
//
//	{
//	  "name": "branching",
//	  "width": 700, "height": 400, "commit_radius": 20,
//	  "root": {"x": -40, "y": 200},
//	  "commits": [{"id": "e137e9b", "parent": "initial", "tags": ["master", "HEAD"],
//	               "cx": 50, "cy": 200, "current": true}],
//	  ...
//	}
//
// Common operations:
//
//	data, _ := graph.MarshalScene(scene)        // Scene → []byte
//	scene, _ := graph.ReadSceneFile("view.json") // File → Scene
//	graph.WriteScene(scene, os.Stdout)          // Scene → io.Writer
//
// # Concurrency
//
// All functions are safe for concurrent use on distinct scenes.
package graph
