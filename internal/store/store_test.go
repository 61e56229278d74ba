package store

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestJobLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.CreateJob(ctx, "job-1", "input/a.mp4"); err != nil {
		t.Fatalf("create: %v", err)
	}

	done, err := s.IsDone(ctx, "input/a.mp4")
	if err != nil {
		t.Fatalf("isdone: %v", err)
	}
	if done {
		t.Fatalf("expected running job to not count as done")
	}

	if err := s.MarkDone(ctx, "job-1", "output/a_processed.mp4"); err != nil {
		t.Fatalf("mark done: %v", err)
	}

	done, err = s.IsDone(ctx, "input/a.mp4")
	if err != nil {
		t.Fatalf("isdone: %v", err)
	}
	if !done {
		t.Fatalf("expected input to be done")
	}

	jobs, err := s.RecentJobs(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	if jobs[0].Status != StatusDone || jobs[0].OutputPath != "output/a_processed.mp4" {
		t.Fatalf("unexpected job row: %+v", jobs[0])
	}
	if jobs[0].CreatedAt.IsZero() || jobs[0].UpdatedAt.IsZero() {
		t.Fatalf("expected timestamps to round-trip, got %+v", jobs[0])
	}
}

func TestMarkFailed(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.CreateJob(ctx, "job-1", "input/b.mp4"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.MarkFailed(ctx, "job-1", "render", "render blew up"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	jobs, err := s.RecentJobs(ctx, 1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if jobs[0].Status != StatusFailed || jobs[0].Stage != "render" || jobs[0].Error != "render blew up" {
		t.Fatalf("unexpected job row: %+v", jobs[0])
	}

	done, err := s.IsDone(ctx, "input/b.mp4")
	if err != nil {
		t.Fatalf("isdone: %v", err)
	}
	if done {
		t.Fatalf("failed job must not count as done")
	}
}

func TestMarkInterrupted(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.CreateJob(ctx, "job-1", "input/c.mp4"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateJob(ctx, "job-2", "input/d.mp4"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.MarkDone(ctx, "job-2", "out.mp4"); err != nil {
		t.Fatalf("mark done: %v", err)
	}

	swept, err := s.MarkInterrupted(ctx)
	if err != nil {
		t.Fatalf("mark interrupted: %v", err)
	}
	if swept != 1 {
		t.Fatalf("expected 1 swept job, got %d", swept)
	}

	counts, err := s.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts[StatusFailed] != 1 || counts[StatusDone] != 1 || counts[StatusRunning] != 0 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

func TestRecentJobsLimit(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for _, id := range []string{"a", "b", "c"} {
		if err := s.CreateJob(ctx, id, "input/"+id+".mp4"); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	jobs, err := s.RecentJobs(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
}
