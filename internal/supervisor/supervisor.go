// Package supervisor wires the event-bus client to the rule
// materializer and runs the dispatch loop until its context is
// canceled, the cmd/materializer analogue of cvpipe's Pipeline
// lifecycle (cancel + WaitGroup).
package supervisor

import (
	"context"
	"log"
	"sync"

	"github.com/n0remac/sfu-control-plane/internal/eventbus"
	"github.com/n0remac/sfu-control-plane/internal/materializer"
)

// Supervisor owns one event-bus client and drives every decoded
// message into the materializer until stopped.
type Supervisor struct {
	bus *eventbus.Client
	mat *materializer.Materializer

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a Supervisor that will dial eventbusAddr and dispatch
// every decoded message to mat.
func New(eventbusAddr string, mat *materializer.Materializer) *Supervisor {
	return &Supervisor{
		bus: eventbus.NewClient(eventbusAddr),
		mat: mat,
	}
}

// Start launches the event-bus client and dispatch loop in background
// goroutines and returns immediately.
func (s *Supervisor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.bus.Run(ctx)
	}()
	go func() {
		defer s.wg.Done()
		s.dispatchLoop(ctx)
	}()
}

func (s *Supervisor) dispatchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-s.bus.Messages():
			if !ok {
				return
			}
			if err := s.mat.HandleMessage(ctx, msg); err != nil {
				log.Printf("[supervisor] handling %s failed: %v", msg.API, err)
			}
		}
	}
}

// Stop cancels the running goroutines and blocks until they exit.
func (s *Supervisor) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}
