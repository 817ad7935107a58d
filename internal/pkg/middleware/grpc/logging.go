package grpc

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/autopeer-io/fleetcast/pkg/log"
)

// UnaryServerLoggingInterceptor logs every call and turns handler panics into Internal errors.
func UnaryServerLoggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = status.Errorf(codes.Internal, "panic in %s: %v", info.FullMethod, r)
			log.Error(fmt.Errorf("%v", r), "gRPC handler panicked", "method", info.FullMethod)
		}
		log.Debug("gRPC call", "method", info.FullMethod, "code", status.Code(err).String(), "duration", time.Since(start))
	}()
	return handler(ctx, req)
}

// StreamServerLoggingInterceptor logs stream lifetimes.
func StreamServerLoggingInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	start := time.Now()
	err := handler(srv, ss)
	log.Debug("gRPC stream closed", "method", info.FullMethod, "code", status.Code(err).String(), "duration", time.Since(start))
	return err
}
