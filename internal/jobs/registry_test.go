package jobs

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func newTestRecord(id string) Record {
	return Record{ID: id, Status: StatusStarting, CreatedAt: time.Now()}
}

func TestTransitions(t *testing.T) {
	tests := []struct {
		name  string
		path  []Status
		valid bool
	}{
		{"start then run then finish", []Status{StatusRunning, StatusFinished}, true},
		{"start then run then fail", []Status{StatusRunning, StatusError}, true},
		{"fail to spawn", []Status{StatusError}, true},
		{"finish without running", []Status{StatusFinished}, false},
		{"leave finished", []Status{StatusRunning, StatusFinished, StatusError}, false},
		{"leave error", []Status{StatusError, StatusRunning}, false},
		{"run twice", []Status{StatusRunning, StatusRunning}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			if err := reg.add(newTestRecord("job")); err != nil {
				t.Fatalf("add() error = %v", err)
			}
			var err error
			for _, to := range tt.path {
				if _, err = reg.transition("job", to, nil); err != nil {
					break
				}
			}
			if tt.valid && err != nil {
				t.Fatalf("transition error = %v, want nil", err)
			}
			if !tt.valid {
				var te *TransitionError
				if !errors.As(err, &te) {
					t.Fatalf("transition error = %v, want *TransitionError", err)
				}
			}
		})
	}
}

func TestTerminalStateIsImmutable(t *testing.T) {
	reg := NewRegistry()
	reg.add(newTestRecord("job"))
	reg.transition("job", StatusRunning, nil)
	code := 0
	reg.transition("job", StatusFinished, func(r *Record) { r.ExitCode = &code })

	rec, err := reg.transition("job", StatusError, func(r *Record) { r.Error = "late" })
	if err == nil {
		t.Fatal("transition out of finished succeeded")
	}
	if rec.Status != StatusFinished || rec.Error != "" {
		t.Errorf("record after rejected transition = %+v, want unchanged finished record", rec)
	}
}

func TestSnapshotsAreIndependent(t *testing.T) {
	reg := NewRegistry()
	reg.add(newTestRecord("job"))
	reg.transition("job", StatusRunning, nil)
	code := 7
	reg.transition("job", StatusError, func(r *Record) { r.ExitCode = &code })

	snap, _ := reg.Get("job")
	*snap.ExitCode = 99

	again, _ := reg.Get("job")
	if *again.ExitCode != 7 {
		t.Errorf("exit code = %d after mutating a snapshot, want 7", *again.ExitCode)
	}
}

func TestGetUnknown(t *testing.T) {
	reg := NewRegistry()
	if _, ok := reg.Get("nope"); ok {
		t.Error("Get() of unknown id reported ok")
	}
	if _, err := reg.transition("nope", StatusRunning, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("transition() error = %v, want ErrNotFound", err)
	}
}

func TestAddDuplicate(t *testing.T) {
	reg := NewRegistry()
	reg.add(newTestRecord("job"))
	if err := reg.add(newTestRecord("job")); err == nil {
		t.Error("add() of duplicate id succeeded")
	}
}

func TestListOrdersByCreation(t *testing.T) {
	reg := NewRegistry()
	base := time.Now()
	for i, id := range []string{"c", "a", "b"} {
		rec := newTestRecord(id)
		rec.CreatedAt = base.Add(time.Duration(i) * time.Second)
		reg.add(rec)
	}
	list := reg.List()
	if len(list) != 3 {
		t.Fatalf("len(List()) = %d, want 3", len(list))
	}
	for i, want := range []string{"c", "a", "b"} {
		if list[i].ID != want {
			t.Errorf("List()[%d].ID = %q, want %q", i, list[i].ID, want)
		}
	}
}

// Readers must never see a terminal status without its exit code.
func TestConcurrentReadersSeeAtomicCompletion(t *testing.T) {
	reg := NewRegistry()
	const n = 50
	for i := 0; i < n; i++ {
		id := GenerateID()
		reg.add(newTestRecord(id))
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				for _, rec := range reg.List() {
					if rec.Status.Terminal() && rec.ExitCode == nil {
						t.Errorf("job %s is %s with no exit code", rec.ID, rec.Status)
						return
					}
				}
			}
		}()
	}

	for _, rec := range reg.List() {
		reg.transition(rec.ID, StatusRunning, nil)
		code := 0
		ended := time.Now()
		reg.transition(rec.ID, StatusFinished, func(r *Record) {
			r.ExitCode = &code
			r.EndedAt = &ended
		})
	}
	close(stop)
	wg.Wait()
}
