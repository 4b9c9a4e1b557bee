package server

import (
	"context"
	"encoding/json"

	mdwerror "github.com/msto63/ct4pwd/foundation/core/error"
	"github.com/msto63/ct4pwd/internal/lovelace/service"
	coregrpc "github.com/msto63/ct4pwd/pkg/core/grpc"
	"github.com/msto63/ct4pwd/pkg/core/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// CompilerServiceName is the fully qualified gRPC service name
const CompilerServiceName = "ct4pwd.v1.Compiler"

const compileMethod = "/" + CompilerServiceName + "/Compile"

// CompilerServer is the server API of the Compiler service. Requests and
// responses carry the JSON shapes of the HTTP API.
type CompilerServer interface {
	Compile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// CompilerServiceDesc describes the Compiler service for registration
var CompilerServiceDesc = grpc.ServiceDesc{
	ServiceName: CompilerServiceName,
	HandlerType: (*CompilerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Compile",
			Handler:    compileHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ct4pwd/v1/compiler.proto",
}

func compileHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CompilerServer).Compile(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: compileMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CompilerServer).Compile(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterCompilerServer registers srv on s
func RegisterCompilerServer(s grpc.ServiceRegistrar, srv CompilerServer) {
	s.RegisterService(&CompilerServiceDesc, srv)
}

// compilerServer exposes the compile service over gRPC
type compilerServer struct {
	svc    *service.Service
	logger *logging.Logger
}

// NewCompilerServer creates the gRPC Compiler implementation
func NewCompilerServer(svc *service.Service, logger *logging.Logger) CompilerServer {
	if logger == nil {
		logger = logging.New("lovelace-grpc")
	}
	return &compilerServer{svc: svc, logger: logger}
}

// Compile implements CompilerServer
func (s *compilerServer) Compile(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req CompileRequest
	if err := fromStruct(in, &req); err != nil {
		s.logger.Debug("rejecting compile request", "error", err)
		return nil, status.Errorf(codes.InvalidArgument, "invalid compile request: %v", err)
	}
	for _, tok := range req.Tokens {
		if err := tok.Validate(); err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid token: %v", err)
		}
	}

	res, err := s.svc.Compile(ctx, req.toService(coregrpc.GetRequestID(ctx)))
	if err != nil {
		return nil, status.Error(grpcCode(mdwerror.GetCode(err)), err.Error())
	}

	out, err := toStruct(res)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode result: %v", err)
	}
	return out, nil
}

// grpcCode maps an error code to a gRPC status code
func grpcCode(code mdwerror.Code) codes.Code {
	switch code {
	case mdwerror.CodeInvalidInput, mdwerror.CodeInvalidFormat, mdwerror.CodeInvalidImage,
		mdwerror.CodeRequiredField, mdwerror.CodeValidationFailed:
		return codes.InvalidArgument
	case mdwerror.CodeNotFound:
		return codes.NotFound
	case mdwerror.CodeServiceUnavailable, mdwerror.CodeDetectionFailed:
		return codes.Unavailable
	case mdwerror.CodeTimeout:
		return codes.DeadlineExceeded
	}
	return codes.Internal
}

// CompilerClient is the client API of the Compiler service
type CompilerClient struct {
	cc grpc.ClientConnInterface
}

// NewCompilerClient creates a client on conn
func NewCompilerClient(cc grpc.ClientConnInterface) *CompilerClient {
	return &CompilerClient{cc: cc}
}

// CompileStruct sends a raw request
func (c *CompilerClient) CompileStruct(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, compileMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Compile sends req and decodes the result
func (c *CompilerClient) Compile(ctx context.Context, req CompileRequest, opts ...grpc.CallOption) (*service.Result, error) {
	in, err := toStruct(req)
	if err != nil {
		return nil, err
	}
	out, err := c.CompileStruct(ctx, in, opts...)
	if err != nil {
		return nil, err
	}
	var res service.Result
	if err := fromStruct(out, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// toStruct converts v through its JSON form
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

// fromStruct decodes s into v through its JSON form
func fromStruct(s *structpb.Struct, v interface{}) error {
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
