package output

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func TestSpinner_NonTTYPrintsOnce(t *testing.T) {
	buf := &bytes.Buffer{}
	s := NewSpinner("Syncing")
	s.SetWriter(buf)

	s.Start()
	s.Start()
	s.Stop()

	if got := buf.String(); got != "Syncing...\n" {
		t.Errorf("output = %q, want a single message line", got)
	}
}

func TestSpinner_MultipleStops(t *testing.T) {
	s := NewSpinner("Test")
	s.SetWriter(&bytes.Buffer{})
	s.Start()

	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinner_StopWithoutStart(t *testing.T) {
	buf := &bytes.Buffer{}
	s := NewSpinner("Test")
	s.SetWriter(buf)
	s.Stop()
	if buf.Len() != 0 {
		t.Errorf("Stop() without Start() wrote %q", buf.String())
	}
}

func TestSpinner_StopWithMessage(t *testing.T) {
	buf := &bytes.Buffer{}
	s := NewSpinner("Working")
	s.SetWriter(buf)
	s.Start()

	s.StopWithMessage("Done!")

	if !strings.HasSuffix(buf.String(), "Done!\n") {
		t.Errorf("output = %q, want final message", buf.String())
	}
}

func TestSpinner_Restart(t *testing.T) {
	buf := &bytes.Buffer{}
	s := NewSpinner("First")
	s.SetWriter(buf)

	s.Start()
	s.Stop()
	s.UpdateMessage("Second")
	s.Start()
	s.Stop()

	if got := buf.String(); got != "First...\nSecond...\n" {
		t.Errorf("output = %q", got)
	}
}

func TestSpinner_Concurrent(t *testing.T) {
	s := NewSpinner("Test")
	s.SetWriter(&bytes.Buffer{})
	s.Start()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.UpdateMessage("Updated")
		}()
	}
	wg.Wait()
	s.Stop()
}
