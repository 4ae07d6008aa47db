package auth

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"golang.org/x/sync/singleflight"
)

func TestDoSharedCollapsesConcurrentCalls(t *testing.T) {
	var group singleflight.Group
	var executions atomic.Int64

	release := make(chan struct{})
	started := make(chan struct{})

	fn := func() (string, error) {
		executions.Add(1)
		close(started)
		<-release
		return "shared-result", nil
	}

	const callers = 8
	results := make([]string, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = doShared(&group, flightInitialize, fn)
	}()

	// Wait until the first call holds the key, then pile on.
	<-started
	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = doShared(&group, flightInitialize, fn)
		}(i)
	}
	close(release)
	wg.Wait()

	if got := executions.Load(); got != 1 {
		t.Errorf("Expected exactly 1 execution, got %d", got)
	}
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Errorf("Caller %d got error: %v", i, errs[i])
		}
		if results[i] != "shared-result" {
			t.Errorf("Caller %d got %q, expected %q", i, results[i], "shared-result")
		}
	}
}

func TestDoSharedReleasesKeyAfterSettlement(t *testing.T) {
	var group singleflight.Group
	var executions atomic.Int64

	fn := func() (int, error) {
		return int(executions.Add(1)), nil
	}

	first, err := doShared(&group, flightRefresh, fn)
	if err != nil {
		t.Fatalf("doShared returned error: %v", err)
	}
	second, err := doShared(&group, flightRefresh, fn)
	if err != nil {
		t.Fatalf("doShared returned error: %v", err)
	}

	if first != 1 || second != 2 {
		t.Errorf("Expected sequential calls to run fn each time, got %d and %d", first, second)
	}
}

func TestDoSharedPropagatesError(t *testing.T) {
	var group singleflight.Group
	boom := errors.New("boom")

	result, err := doShared(&group, flightAuthFlow, func() (*struct{}, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("Expected error %v, got %v", boom, err)
	}
	if result != nil {
		t.Errorf("Expected zero result on error, got %v", result)
	}
}

func TestDoSharedDistinctKeys(t *testing.T) {
	var group singleflight.Group
	var executions atomic.Int64

	block := make(chan struct{})
	firstRunning := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = doShared(&group, flightInitialize, func() (bool, error) {
			executions.Add(1)
			close(firstRunning)
			<-block
			return true, nil
		})
	}()

	<-firstRunning

	// A call under a different key must not be blocked by the first.
	done := make(chan struct{})
	go func() {
		_, _ = doShared(&group, flightRefresh, func() (bool, error) {
			executions.Add(1)
			return true, nil
		})
		close(done)
	}()

	<-done
	close(block)
	wg.Wait()

	if got := executions.Load(); got != 2 {
		t.Errorf("Expected 2 executions across distinct keys, got %d", got)
	}
}
