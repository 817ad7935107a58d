package grpc

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestUnaryServerTimeoutInterceptor(t *testing.T) {
	tests := []struct {
		name     string
		deadline time.Duration
		max      time.Duration
	}{
		{name: "no deadline gets default", max: DefaultRPCTimeout},
		{name: "caller deadline kept", deadline: time.Second, max: time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.deadline > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, tt.deadline)
				defer cancel()
			}

			_, err := UnaryServerTimeoutInterceptor(ctx, nil, &grpc.UnaryServerInfo{}, func(ctx context.Context, _ any) (any, error) {
				dl, ok := ctx.Deadline()
				if !ok {
					t.Fatal("handler context has no deadline")
				}
				if left := time.Until(dl); left > tt.max {
					t.Errorf("deadline in %v, want at most %v", left, tt.max)
				}
				return nil, nil
			})
			if err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestUnaryServerLoggingInterceptorRecovers(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: "/test.Service/Boom"}
	_, err := UnaryServerLoggingInterceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		panic("boom")
	})
	if status.Code(err) != codes.Internal {
		t.Errorf("code = %v, want Internal", status.Code(err))
	}
}
