// cmd/reconciler/main.go runs the Session Reconciler: a WebSocket
// server RMs dial into, fed either by --test's hardcoded scenario or
// (once a signaling-side transport exists) live session events.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/n0remac/sfu-control-plane/internal/eventbus"
	"github.com/n0remac/sfu-control-plane/internal/ports"
	"github.com/n0remac/sfu-control-plane/internal/session"
)

func main() {
	addr := flag.String("addr", ":8765", "address the event bus WebSocket server listens on")
	testMode := flag.Bool("test", false, "run the hardcoded three-participant test scenario, then exit")
	svcStructure := flag.String("svc-structure", "", "if set, broadcast update_av1_svc_structure for this structure name once at startup, to the RMs connected at that moment")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := eventbus.NewHub()
	go hub.Run()

	rec := session.New(ports.Default(), eventbus.HubEmitter{Hub: hub})

	mux := http.NewServeMux()
	mux.Handle("/eventbus", hub)
	srv := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		log.Printf("[reconciler] event bus listening on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[reconciler] ListenAndServe: %v", err)
		}
	}()

	if *testMode {
		go runTestScenario(rec)
	}

	if *svcStructure != "" {
		log.Printf("[reconciler] broadcasting update_av1_svc_structure=%s", *svcStructure)
		if err := eventbus.PublishUpdateAV1SVCStructure(hub, *svcStructure); err != nil {
			log.Printf("[reconciler] publish update_av1_svc_structure: %v", err)
		}
	}

	<-ctx.Done()
	log.Println("[reconciler] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[reconciler] shutdown: %v", err)
	}
}

// runTestScenario reproduces the reference agent's hardcoded three-
// participant meeting: P1, P2, P3 join meeting 0 on the same host with
// distinct ports, each publishing one video stream, then exits the
// process after a one-second grace period for the final EB flush.
func runTestScenario(rec *session.Reconciler) {
	const meeting session.MeetingKey = 0

	const (
		p1IP, p1Port, p1Eport = "10.0.211.2", 1111, "veth4"
		p2IP, p2Port, p2Eport = "10.0.211.2", 2222, "veth6"
		p3IP, p3Port, p3Eport = "10.0.211.2", 3333, "veth6"
	)
	const (
		p1VSSRC, p1VSSRCRtx = 110, 111
		p2VSSRC, p2VSSRCRtx = 210, 211
		p3VSSRC, p3VSSRCRtx = 310, 311
	)

	log.Println("[reconciler] test scenario: P1, P2, P3 join meeting 0 with video on")

	if _, err := rec.AddStream(meeting, p1IP, p1Port, p1VSSRC, p1VSSRCRtx, p1Eport, session.MediaVideo); err != nil {
		log.Printf("[reconciler] test: add P1 video: %v", err)
	}
	if _, err := rec.AddStream(meeting, p2IP, p2Port, p2VSSRC, p2VSSRCRtx, p2Eport, session.MediaVideo); err != nil {
		log.Printf("[reconciler] test: add P2 video: %v", err)
	}
	if _, err := rec.AddStream(meeting, p3IP, p3Port, p3VSSRC, p3VSSRCRtx, p3Eport, session.MediaVideo); err != nil {
		log.Printf("[reconciler] test: add P3 video: %v", err)
	}

	for _, rs := range rec.ReceiveStreams() {
		log.Printf("[reconciler] test: derived receive stream %+v", rs)
	}

	time.Sleep(time.Second)
	log.Println("[reconciler] test scenario done, exiting")
	os.Exit(0)
}
