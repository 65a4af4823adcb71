// Package trace records the patch batches a host applies, one frame per
// batch, in a bbolt file so a session can be inspected afterwards.
package trace

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/go-drift/sprig/pkg/patch"
)

const bucketFrames = "frames"

// ErrNoFrame is returned when no frame has the requested sequence number.
var ErrNoFrame = errors.New("no such frame")

// Frame is one recorded patch batch.
type Frame struct {
	// Seq numbers frames from 1 in recording order.
	Seq     uint64        `json:"-"`
	App     string        `json:"app,omitempty"`
	Time    time.Time     `json:"time"`
	Patches []patch.Patch `json:"patches"`
}

// Recorder appends frames to a bbolt database.
type Recorder struct {
	db  *bolt.DB
	app string
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithApp labels every recorded frame with an application name.
func WithApp(name string) Option {
	return func(r *Recorder) { r.app = name }
}

// Open opens or creates the trace file at path.
func Open(path string, opts ...Option) (*Recorder, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open trace %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketFrames))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize trace %s: %w", path, err)
	}
	r := &Recorder{db: db}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Record appends a frame holding patches and returns its sequence number.
func (r *Recorder) Record(at time.Time, patches []patch.Patch) (uint64, error) {
	if patches == nil {
		patches = []patch.Patch{}
	}
	data, err := json.Marshal(Frame{App: r.app, Time: at.UTC(), Patches: patches})
	if err != nil {
		return 0, fmt.Errorf("encode frame: %w", err)
	}
	var seq uint64
	err = r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketFrames))
		seq, err = b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(marshalSeq(seq), data)
	})
	return seq, err
}

// Frame returns the frame with sequence number seq.
func (r *Recorder) Frame(seq uint64) (Frame, error) {
	var f Frame
	err := r.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketFrames)).Get(marshalSeq(seq))
		if v == nil {
			return ErrNoFrame
		}
		return decodeFrame(seq, v, &f)
	})
	return f, err
}

// Iterate calls fn with every frame numbered from from onwards, in order,
// until fn returns an error.
func (r *Recorder) Iterate(from uint64, fn func(Frame) error) error {
	return r.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketFrames)).Cursor()
		for k, v := c.Seek(marshalSeq(from)); k != nil; k, v = c.Next() {
			var f Frame
			if err := decodeFrame(unmarshalSeq(k), v, &f); err != nil {
				return err
			}
			if err := fn(f); err != nil {
				return err
			}
		}
		return nil
	})
}

// Frames returns every recorded frame.
func (r *Recorder) Frames() ([]Frame, error) {
	var frames []Frame
	err := r.Iterate(1, func(f Frame) error {
		frames = append(frames, f)
		return nil
	})
	return frames, err
}

// Len returns the number of recorded frames.
func (r *Recorder) Len() (int, error) {
	var n int
	err := r.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket([]byte(bucketFrames)).Stats().KeyN
		return nil
	})
	return n, err
}

// Close closes the underlying database.
func (r *Recorder) Close() error {
	return r.db.Close()
}

func decodeFrame(seq uint64, data []byte, f *Frame) error {
	if err := json.Unmarshal(data, f); err != nil {
		return fmt.Errorf("decode frame %d: %w", seq, err)
	}
	f.Seq = seq
	return nil
}

func marshalSeq(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

func unmarshalSeq(key []byte) uint64 {
	return binary.BigEndian.Uint64(key)
}
