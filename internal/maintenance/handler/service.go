package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const serviceName = "pmc.v1.MaintenanceService"

// MaintenanceServiceServer is the server API for pmc.v1.MaintenanceService.
// Bodies are google.protobuf.Struct documents with snake_case fields.
type MaintenanceServiceServer interface {
	SubmitMaintenanceReport(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubmitRepairEvent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListServiceHistory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetReportDetail(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(MaintenanceServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func methodHandler(name string, call unaryMethod) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(MaintenanceServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + serviceName + "/" + name,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(MaintenanceServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var MaintenanceServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*MaintenanceServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SubmitMaintenanceReport",
			Handler:    methodHandler("SubmitMaintenanceReport", MaintenanceServiceServer.SubmitMaintenanceReport),
		},
		{
			MethodName: "SubmitRepairEvent",
			Handler:    methodHandler("SubmitRepairEvent", MaintenanceServiceServer.SubmitRepairEvent),
		},
		{
			MethodName: "ListServiceHistory",
			Handler:    methodHandler("ListServiceHistory", MaintenanceServiceServer.ListServiceHistory),
		},
		{
			MethodName: "GetReportDetail",
			Handler:    methodHandler("GetReportDetail", MaintenanceServiceServer.GetReportDetail),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pmc/v1/maintenance.proto",
}

func RegisterMaintenanceServiceServer(s grpc.ServiceRegistrar, srv MaintenanceServiceServer) {
	s.RegisterService(&MaintenanceServiceDesc, srv)
}
