package session

// StartWatcher schedules the recurring expiration check. Without a token
// it marks the session expired and schedules nothing. Calling it while a
// watcher is running does nothing.
func (s *Store) StartWatcher() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == "" {
		s.expired = true
		return
	}
	if s.watcher != nil {
		return
	}
	s.gen++
	s.scheduleLocked(s.gen)
	s.log.Debug("watcher started", "interval", s.interval)
}

// StopWatcher cancels the pending tick. It is safe to call when no watcher
// is running.
func (s *Store) StopWatcher() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Store) stopLocked() {
	if s.watcher == nil {
		return
	}
	s.watcher.Stop()
	s.watcher = nil
	s.gen++
}

func (s *Store) scheduleLocked(gen uint64) {
	s.watcher = s.clock.AfterFunc(s.interval, func() {
		s.tick(gen)
	})
}

// tick runs one check and re-arms the watcher. The next tick is scheduled
// only after the check, so checks never overlap. A tick whose generation
// is stale belongs to a stopped watcher and does nothing.
func (s *Store) tick(gen uint64) {
	if !s.current(gen) {
		return
	}

	s.metrics.ObserveTick()
	s.CheckExpiration()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil && s.gen == gen {
		s.scheduleLocked(gen)
	}
}

func (s *Store) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watcher != nil && s.gen == gen
}
