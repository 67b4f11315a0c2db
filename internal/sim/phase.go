package sim

// Phase is the run state of a Simulator.
type Phase int

const (
	Ready Phase = iota
	Stepping
	Finished
)

func (p Phase) String() string {
	switch p {
	case Ready:
		return "ready"
	case Stepping:
		return "stepping"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

func (s *Simulator) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Simulator) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == Stepping {
		return ErrBusy
	}
	s.phase = Stepping
	return nil
}

// finish moves to Finished after a complete trajectory and back to Ready after
// a failure.
func (s *Simulator) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.phase = Ready
		return
	}
	s.phase = Finished
}
