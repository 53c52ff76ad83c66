package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fullstorydev/grpcurl"
	"github.com/jhump/protoreflect/grpcreflect"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/joshp123/findmy/internal/config"
)

func grpcCmd(ctx context.Context, command string, args []string, out outputMode) {
	addr := resolveAddr()
	conn, err := grpcurl.BlockingDial(ctx, "tcp", addr, insecure.NewCredentials())
	if err != nil {
		fatal("dial", err)
	}
	defer conn.Close()

	switch command {
	case "services":
		servicesCmd(ctx, conn)
	case "methods":
		methodsCmd(ctx, conn, args)
	case "health":
		healthCmd(ctx, conn, args, out)
	}
}

func servicesCmd(ctx context.Context, conn *grpc.ClientConn) {
	descSource := reflectionSource(ctx, conn)
	services, err := grpcurl.ListServices(descSource)
	if err != nil {
		fatal("list services", err)
	}

	for _, service := range services {
		fmt.Println(service)
	}
}

func methodsCmd(ctx context.Context, conn *grpc.ClientConn, args []string) {
	if len(args) < 1 {
		fatal("methods", fmt.Errorf("missing service name"))
	}

	descSource := reflectionSource(ctx, conn)
	methods, err := grpcurl.ListMethods(descSource, args[0])
	if err != nil {
		fatal("list methods", err)
	}

	for _, method := range methods {
		fmt.Println(method)
	}
}

func healthCmd(ctx context.Context, conn *grpc.ClientConn, args []string, out outputMode) {
	service := ""
	if len(args) > 0 {
		service = args[0]
	}

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		fatal("health", err)
	}
	if out.json {
		data, err := protojson.MarshalOptions{Multiline: true}.Marshal(resp)
		if err != nil {
			fatal("format json", err)
		}
		fmt.Fprintln(out.w, string(data))
	} else {
		fmt.Fprintln(out.w, resp.GetStatus().String())
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		os.Exit(1)
	}
}

func reflectionSource(ctx context.Context, conn *grpc.ClientConn) grpcurl.DescriptorSource {
	client := grpcreflect.NewClientAuto(ctx, conn)
	return grpcurl.DescriptorSourceFromServer(ctx, client)
}

func resolveAddr() string {
	if value := os.Getenv("FINDMY_GRPC_ADDR"); value != "" {
		return value
	}
	for _, path := range configSearchPaths("") {
		cfg, err := config.Load(path)
		if err == nil && cfg.Core.GRPCAddr != "" {
			return cfg.Core.GRPCAddr
		}
	}
	return "localhost:9000"
}
