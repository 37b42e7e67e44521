package queue

import (
	"errors"
	"sync"
	"testing"

	"github.com/vaibh/video-analyzer/internal/types"
)

func TestStoreCreateAndView(t *testing.T) {
	store := NewStore()
	job := store.Create(JobSpec{VideoName: "demo", Provider: types.ProviderGemini})

	if job.ID == "" {
		t.Fatal("job has no id")
	}

	view, err := store.View(job.ID)
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
	if view.Status != types.StatusPending {
		t.Errorf("new job status = %q, want pending", view.Status)
	}
	if view.Progress != 0 {
		t.Errorf("new job progress = %d, want 0", view.Progress)
	}
	if view.Result != nil || view.Error != nil {
		t.Error("pending job exposes result or error")
	}
}

func TestStoreViewUnknownJob(t *testing.T) {
	store := NewStore()
	if _, err := store.View("no-such-job"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("unknown id error = %v, want ErrJobNotFound", err)
	}
}

func TestJobProgressMonotonic(t *testing.T) {
	store := NewStore()
	job := store.Create(JobSpec{})

	job.setProgress(40, "Analyzing chunk 2/5...")
	job.setProgress(20, "stale update")

	view := job.View()
	if view.Progress != 40 {
		t.Errorf("progress moved backwards: %d", view.Progress)
	}
	if view.Status != types.StatusProcessing {
		t.Errorf("status = %q, want processing", view.Status)
	}
}

func TestJobCompletedSnapshot(t *testing.T) {
	store := NewStore()
	job := store.Create(JobSpec{})

	job.setProgress(95, "Saving results...")
	job.Complete("# Report")

	view := job.View()
	if view.Status != types.StatusCompleted {
		t.Fatalf("status = %q", view.Status)
	}
	if view.Progress != 100 {
		t.Errorf("completed progress = %d, want 100", view.Progress)
	}
	if view.Result == nil || *view.Result != "# Report" {
		t.Errorf("result not exposed: %+v", view.Result)
	}
	if view.Error != nil {
		t.Error("completed job exposes an error")
	}
}

func TestJobFailedSnapshot(t *testing.T) {
	store := NewStore()
	job := store.Create(JobSpec{})

	job.Fail("Failed to extract chunk 3")

	view := job.View()
	if view.Status != types.StatusFailed {
		t.Fatalf("status = %q", view.Status)
	}
	if view.Error == nil || *view.Error != "Failed to extract chunk 3" {
		t.Errorf("error not exposed: %+v", view.Error)
	}
	if view.Result != nil {
		t.Error("failed job exposes a result")
	}
}

func TestStoreCancel(t *testing.T) {
	store := NewStore()
	job := store.Create(JobSpec{})

	if job.isCancelled() {
		t.Fatal("new job already cancelled")
	}
	if err := store.Cancel(job.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if !job.isCancelled() {
		t.Error("cancel flag not set")
	}

	if err := store.Cancel("no-such-job"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("unknown id error = %v, want ErrJobNotFound", err)
	}
}

func TestConcurrentPollingDuringUpdates(t *testing.T) {
	store := NewStore()
	job := store.Create(JobSpec{})

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for p := 1; p <= 100; p++ {
			job.setProgress(p, "working")
		}
		job.Complete("done")
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			view := job.View()
			// A torn snapshot would pair completed status with a nil
			// result or a failed status out of nowhere
			if view.Status == types.StatusCompleted && view.Result == nil {
				t.Error("completed snapshot without result")
				return
			}
			if view.Status == types.StatusFailed {
				t.Error("unexpected failed status")
				return
			}
		}
	}()

	wg.Wait()

	final := job.View()
	if final.Status != types.StatusCompleted || final.Progress != 100 {
		t.Errorf("final view = %+v", final)
	}
}
