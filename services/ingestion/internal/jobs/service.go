package jobs

import (
	"context"
	"errors"
	"sync"
)

// ErrRunInProgress is returned when a run is requested while another is active.
var ErrRunInProgress = errors.New("ingestion run already in progress")

// Service serialises pipeline runs and remembers the last result.
type Service struct {
	Pipeline *Pipeline

	mu      sync.Mutex
	running bool
	last    *RunResult
}

func NewService(p *Pipeline) *Service {
	return &Service{Pipeline: p}
}

// Run executes one batch unless another is in progress.
func (s *Service) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	if !s.begin() {
		return nil, ErrRunInProgress
	}
	res, err := s.Pipeline.Run(ctx, opts)
	s.finish(res)
	return res, err
}

// Start launches a run in the background. It reports false when one is already running.
func (s *Service) Start(ctx context.Context, opts RunOptions) bool {
	if !s.begin() {
		return false
	}
	go func() {
		res, _ := s.Pipeline.Run(ctx, opts)
		s.finish(res)
	}()
	return true
}

func (s *Service) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *Service) finish(res *RunResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	if res != nil {
		s.last = res
	}
}

func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Last returns the most recent finished run, or nil.
func (s *Service) Last() *RunResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Pending is the number of queued plus in-flight TMDB requests.
func (s *Service) Pending() int {
	if s.Pipeline == nil || s.Pipeline.Provider == nil {
		return 0
	}
	return s.Pipeline.Provider.Pending()
}
