package gateway

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.Default()
}

func TestPendingResolve(t *testing.T) {
	p := newPendingTable(testLogger())

	ch, err := p.register("r1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	p.resolve("r1", []byte(`{"ok":true}`))

	res := <-ch
	if res.err != nil {
		t.Fatalf("unexpected error: %v", res.err)
	}
	if string(res.result) != `{"ok":true}` {
		t.Errorf("result = %s", res.result)
	}
	if p.size() != 0 {
		t.Errorf("size = %d; want 0", p.size())
	}
}

func TestPendingDuplicateID(t *testing.T) {
	p := newPendingTable(testLogger())

	if _, err := p.register("dup"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := p.register("dup")
	if err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	var oce *OpenClawError
	if !errors.As(err, &oce) || oce.Code != CodeDuplicateID {
		t.Errorf("error = %v; want code %s", err, CodeDuplicateID)
	}
}

func TestPendingUnknownIDNoop(t *testing.T) {
	p := newPendingTable(testLogger())

	// Must not panic or block.
	p.resolve("ghost", []byte(`{}`))
	p.fail("ghost", errors.New("late"))
}

func TestPendingLateResolutionAfterRemove(t *testing.T) {
	p := newPendingTable(testLogger())

	ch, err := p.register("r1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	p.remove("r1")

	// A response arriving after the caller gave up is dropped.
	p.resolve("r1", []byte(`{"late":true}`))
	select {
	case res := <-ch:
		t.Fatalf("slot resolved after removal: %+v", res)
	default:
	}
}

func TestPendingFailAll(t *testing.T) {
	p := newPendingTable(testLogger())

	const n = 8
	chans := make([]<-chan callResult, 0, n)
	for i := 0; i < n; i++ {
		ch, err := p.register(fmt.Sprintf("r%d", i))
		if err != nil {
			t.Fatalf("register %d: %v", i, err)
		}
		chans = append(chans, ch)
	}

	cause := NewConnectionError(CodeConnectionClosed, "connection closed", nil)
	p.failAll(cause)

	for i, ch := range chans {
		res := <-ch
		if !IsConnectionError(res.err) {
			t.Errorf("slot %d: err = %v; want connection error", i, res.err)
		}
	}
	if p.size() != 0 {
		t.Errorf("size = %d; want 0", p.size())
	}
}

func TestPendingRegisterAfterFailAllRejected(t *testing.T) {
	p := newPendingTable(testLogger())

	p.failAll(NewConnectionError(CodeConnectionClosed, "connection closed", nil))

	// A registration landing behind the sweep would never be resolved by
	// anything; it must fail immediately instead of handing out a dead slot.
	_, err := p.register("straggler")
	if !IsConnectionError(err) {
		t.Fatalf("register after failAll: err = %v; want connection error", err)
	}

	// Reconnecting reopens the table and ids become usable again.
	p.reopen()
	ch, err := p.register("straggler")
	if err != nil {
		t.Fatalf("register after reopen: %v", err)
	}
	p.resolve("straggler", []byte(`{"ok":true}`))
	if res := <-ch; res.err != nil {
		t.Fatalf("resolve after reopen: %v", res.err)
	}
}

func TestPendingConcurrentRegisterResolve(t *testing.T) {
	p := newPendingTable(testLogger())

	const n = 64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("c%d", i)
			ch, err := p.register(id)
			if err != nil {
				t.Errorf("register %s: %v", id, err)
				return
			}
			p.resolve(id, []byte(fmt.Sprintf(`{"n":%d}`, i)))
			res := <-ch
			want := fmt.Sprintf(`{"n":%d}`, i)
			if string(res.result) != want {
				t.Errorf("slot %s got %s; want %s", id, res.result, want)
			}
		}(i)
	}
	wg.Wait()

	if p.size() != 0 {
		t.Errorf("size = %d; want 0", p.size())
	}
}
