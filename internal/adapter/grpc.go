package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"actcli/internal/project"
	"actcli/internal/seminar"
)

// BackendServiceName is the gRPC service exposed by `actcli backend serve`.
// Requests and replies are google.protobuf.Struct messages so no generated
// stubs are needed.
const (
	BackendServiceName = "actcli.backend.v1.Backend"
	generateMethod     = "/" + BackendServiceName + "/Generate"
)

// GRPC is a client for a remote Backend service.
type GRPC struct {
	desc  seminar.Descriptor
	model string
	conn  *grpc.ClientConn
}

// NewGRPC dials mc.BaseURL lazily; the connection is established on first use.
func NewGRPC(mc project.ModelConfig, dialOpts ...grpc.DialOption) (*GRPC, error) {
	target := strings.TrimSpace(mc.BaseURL)
	if target == "" {
		return nil, errors.New("base_url is required for grpc models")
	}
	opts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, dialOpts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc client %s: %w", target, err)
	}
	model := coalesce(mc.Model, mc.ID)
	return &GRPC{desc: describe(mc, model, false), model: model, conn: conn}, nil
}

func (g *GRPC) Descriptor() seminar.Descriptor { return g.desc }

func (g *GRPC) Generate(ctx context.Context, prompt string, opts seminar.GenerateOptions) (string, error) {
	fields := map[string]any{
		"model":  g.model,
		"prompt": prompt,
		"system": opts.System,
		"round":  float64(opts.RoundIndex),
	}
	if opts.PeerSnippets != "" {
		fields["peer_snippets"] = opts.PeerSnippets
	}
	if opts.Seed != nil {
		fields["seed"] = float64(*opts.Seed)
	}
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return "", fmt.Errorf("encode grpc request: %w", err)
	}
	reply := &structpb.Struct{}
	if err := g.conn.Invoke(ctx, generateMethod, req, reply); err != nil {
		return "", fmt.Errorf("grpc generate: %w", err)
	}
	return strings.TrimSpace(reply.GetFields()["text"].GetStringValue()), nil
}

func (g *GRPC) Close() error { return g.conn.Close() }

// Backend is implemented by whatever serves Generate calls.
type Backend interface {
	Generate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// adapterBackend exposes a seminar.Adapter over gRPC.
type adapterBackend struct {
	a seminar.Adapter
}

func (b adapterBackend) Generate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := req.GetFields()
	prompt := f["prompt"].GetStringValue()
	if strings.TrimSpace(prompt) == "" {
		return nil, status.Error(codes.InvalidArgument, "prompt is required")
	}
	opts := seminar.GenerateOptions{
		System:       f["system"].GetStringValue(),
		RoundIndex:   int(f["round"].GetNumberValue()),
		PeerSnippets: f["peer_snippets"].GetStringValue(),
	}
	if v, ok := f["seed"]; ok {
		seed := int(v.GetNumberValue())
		opts.Seed = &seed
	}
	text, err := b.a.Generate(ctx, prompt, opts)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, status.Error(codes.DeadlineExceeded, err.Error())
		}
		return nil, status.Error(codes.Unavailable, err.Error())
	}
	d := b.a.Descriptor()
	return structpb.NewStruct(map[string]any{
		"text":    text,
		"id":      d.ID,
		"version": d.ModelVersion,
	})
}

var backendServiceDesc = grpc.ServiceDesc{
	ServiceName: BackendServiceName,
	HandlerType: (*Backend)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Generate", Handler: generateHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "actcli/backend.proto",
}

func generateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Backend).Generate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: generateMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Backend).Generate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterBackend registers a so that remote actcli instances can use it as a
// grpc model.
func RegisterBackend(s *grpc.Server, a seminar.Adapter) {
	s.RegisterService(&backendServiceDesc, adapterBackend{a: a})
}

// ServeBackend blocks serving a on lis until ctx is done.
func ServeBackend(ctx context.Context, lis net.Listener, a seminar.Adapter) error {
	s := grpc.NewServer(grpc.UnaryInterceptor(logUnary))
	RegisterBackend(s, a)
	go func() {
		<-ctx.Done()
		s.GracefulStop()
	}()
	slog.Info("backend serving", "addr", lis.Addr().String(), "model", a.Descriptor().ID)
	if err := s.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

func logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	if err != nil {
		slog.Warn("backend call failed", "method", info.FullMethod, "err", err)
	} else {
		slog.Debug("backend call", "method", info.FullMethod)
	}
	return resp, err
}
