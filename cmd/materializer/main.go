// cmd/materializer/main.go runs the Rule Materializer: it dials the
// BFRuntime agent over gRPC (or falls back to an in-memory Simulated
// client when --runtime-addr is unset) and the SR's event bus over
// WebSocket, and programs hardware tables from every decoded delta.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/n0remac/sfu-control-plane/internal/materializer"
	"github.com/n0remac/sfu-control-plane/internal/runtime"
	"github.com/n0remac/sfu-control-plane/internal/runtime/grpcrc"
	"github.com/n0remac/sfu-control-plane/internal/supervisor"
)

func main() {
	eventbusAddr := flag.String("eventbus-addr", envOr("EVENTBUS_ADDR", "localhost:8765"), "SR event bus WebSocket address (host:port)")
	runtimeAddr := flag.String("runtime-addr", "", "BFRuntime agent gRPC address; empty runs against an in-memory simulated backend")
	hardware := flag.Bool("hardware", false, "true when driving real Tofino hardware (selects the hardware CPU port); false targets the model")
	verbose := flag.Bool("verbose", false, "log a verbose-mode notice at startup; dispatched event-bus messages are not logged individually")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rc, closeRC := buildRuntimeClient(*runtimeAddr)
	defer closeRC()

	mat, err := materializer.New(ctx, rc, *hardware)
	if err != nil {
		log.Fatalf("[materializer] New: %v", err)
	}

	if *verbose {
		log.Printf("[materializer] verbose mode enabled")
	}

	sup := supervisor.New(*eventbusAddr, mat)
	sup.Start(ctx)

	log.Printf("[materializer] running (eventbus=%s hardware=%v)", *eventbusAddr, *hardware)
	<-ctx.Done()
	log.Println("[materializer] shutting down")
	sup.Stop()
}

func buildRuntimeClient(addr string) (runtime.Client, func()) {
	if addr == "" {
		log.Println("[materializer] no --runtime-addr given, using in-memory simulated runtime client")
		return runtime.NewSimulated(), func() {}
	}
	cc, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("[materializer] dialing runtime agent at %s: %v", addr, err)
	}
	log.Printf("[materializer] connected to BFRuntime agent at %s", addr)
	return grpcrc.NewRuntimeClient(cc), func() { cc.Close() }
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
