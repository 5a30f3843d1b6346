package agent

import "sync"

// cycleState carries the per-cycle orchestration flags shared between the
// tool dispatcher and the orchestrator. A fresh instance is created for
// every check-in cycle, so flag resets never race with a running cycle.
type cycleState struct {
	mu               sync.Mutex
	shouldDisconnect bool
	alarmTriggered   bool
	disconnectReason string
	sessionID        string
}

func newCycleState() *cycleState {
	return &cycleState{}
}

// requestDisconnect marks the cycle for teardown, recording why. Only the
// first reason is kept.
func (s *cycleState) requestDisconnect(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.shouldDisconnect {
		s.shouldDisconnect = true
		s.disconnectReason = reason
	}
}

func (s *cycleState) disconnectRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shouldDisconnect
}

func (s *cycleState) reason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disconnectReason
}

func (s *cycleState) setAlarm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alarmTriggered = true
}

func (s *cycleState) alarmRaised() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alarmTriggered
}

func (s *cycleState) setSessionID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionID = id
}

func (s *cycleState) session() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}
