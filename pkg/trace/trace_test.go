package trace

import (
	stderrors "errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/go-drift/sprig/pkg/native"
	"github.com/go-drift/sprig/pkg/node"
	"github.com/go-drift/sprig/pkg/patch"
)

func openTemp(t *testing.T, opts ...Option) (*Recorder, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.db")
	r, err := Open(path, opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { r.Close() })
	return r, path
}

func TestRecorder_RoundTripEachOp(t *testing.T) {
	r, _ := openTemp(t, WithApp("gallery"))
	parent, a, b := node.New(), node.New(), node.New()
	patches := []patch.Patch{
		patch.Update(parent, native.Layer{
			Bounds:     native.RectFromLTWH(0, 0, 320, 480),
			Background: native.RGB(0x20, 0x40, 0x60),
			Transform:  native.Identity,
			Opacity:    1,
		}),
		patch.Update(a, native.Text{Text: "hello", FontSize: 14}),
		patch.Replace(b, native.TextField{Placeholder: "name"}),
		patch.Region(parent, 0, 0, []node.ID{a, b}),
		patch.Region(parent, 1, 1, nil),
		patch.Remove(b),
		patch.SetRoot(parent),
	}
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	seq, err := r.Record(at, patches)
	if err != nil {
		t.Fatal(err)
	}
	if seq != 1 {
		t.Errorf("first sequence = %d, want 1", seq)
	}

	got, err := r.Frame(seq)
	if err != nil {
		t.Fatal(err)
	}
	want := Frame{Seq: 1, App: "gallery", Time: at, Patches: patches}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("frame mismatch (-want +got):\n%s", diff)
	}
}

func TestRecorder_FramesInOrder(t *testing.T) {
	r, _ := openTemp(t)
	ids := []node.ID{node.New(), node.New(), node.New()}
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range ids {
		if _, err := r.Record(start.Add(time.Duration(i)*time.Second), []patch.Patch{patch.SetRoot(id)}); err != nil {
			t.Fatal(err)
		}
	}

	frames, err := r.Frames()
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != len(ids) {
		t.Fatalf("got %d frames, want %d", len(frames), len(ids))
	}
	for i, f := range frames {
		if f.Seq != uint64(i+1) || f.Patches[0].ID != ids[i] {
			t.Errorf("frame %d = seq %d root %s", i, f.Seq, f.Patches[0].ID.Short())
		}
	}

	var tail []uint64
	err = r.Iterate(2, func(f Frame) error {
		tail = append(tail, f.Seq)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]uint64{2, 3}, tail); diff != "" {
		t.Errorf("iterate from 2 mismatch (-want +got):\n%s", diff)
	}

	if n, err := r.Len(); err != nil || n != 3 {
		t.Errorf("Len = %d, %v; want 3", n, err)
	}
}

func TestRecorder_IterateStopsOnError(t *testing.T) {
	r, _ := openTemp(t)
	for range 3 {
		if _, err := r.Record(time.Now(), nil); err != nil {
			t.Fatal(err)
		}
	}
	stop := stderrors.New("stop")
	calls := 0
	err := r.Iterate(1, func(Frame) error {
		calls++
		return stop
	})
	if !stderrors.Is(err, stop) || calls != 1 {
		t.Errorf("Iterate = %v after %d calls, want stop after 1", err, calls)
	}
}

func TestRecorder_MissingFrame(t *testing.T) {
	r, _ := openTemp(t)
	if _, err := r.Frame(7); !stderrors.Is(err, ErrNoFrame) {
		t.Errorf("expected ErrNoFrame, got %v", err)
	}
}

func TestRecorder_EmptyFrame(t *testing.T) {
	r, _ := openTemp(t)
	seq, err := r.Record(time.Now(), nil)
	if err != nil {
		t.Fatal(err)
	}
	f, err := r.Frame(seq)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Patches) != 0 {
		t.Errorf("expected no patches, got %v", f.Patches)
	}
}

func TestRecorder_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.db")
	r, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Record(time.Now(), []patch.Patch{patch.Remove(node.New())}); err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}

	r, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	seq, err := r.Record(time.Now(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if seq != 2 {
		t.Errorf("sequence after reopen = %d, want 2", seq)
	}
}
