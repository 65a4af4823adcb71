// Package testing provides fakes for exercising the reconciler and the
// native tree applier without a platform backend.
//
// # Recording backend
//
// RecordingBackend implements nvtree.Backend[int]. It records every call,
// keeps its own child lists, and can fail the next call of a method:
//
//	backend := sprigtest.NewRecordingBackend()
//	applier := nvtree.New[int](backend)
//	backend.FailNext("Create", errBoom)
//
// # Lifecycle probes
//
// ProbeView is a stateful composite whose Probe state counts its hooks
// into a Lifecycle the test owns:
//
//	var life sprigtest.Lifecycle
//	tree.Render(sprigtest.ProbeView{Name: "a", Recorder: &life})
//	if life.Count("a", sprigtest.HookAppear) != 1 { ... }
//
// # Snapshot Testing
//
// Capture the backend's visible tree and compare it against a golden
// file:
//
//	backend.CaptureSnapshot().MatchesFile(t, "testdata/list.snapshot.json")
//
// Update snapshots with:
//
//	SPRIG_UPDATE_SNAPSHOTS=1 go test ./...
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import sprigtest "github.com/go-drift/sprig/pkg/testing"
package testing
