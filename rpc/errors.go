package rpc

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"noice.so/noice/runtime"
)

// ErrNotFound is returned by the client when the queried signature or
// account does not exist on the ledger.
var ErrNotFound = errors.New("rpc: not found")

// mapErr converts runtime errors into gRPC statuses on the server side.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var re *runtime.Error
	if errors.As(err, &re) {
		switch re.Kind {
		case runtime.KindParse:
			return status.Error(codes.InvalidArgument, re.Message)
		case runtime.KindSignature:
			return status.Error(codes.Unauthenticated, re.Message)
		case runtime.KindRejected:
			return status.Error(codes.FailedPrecondition, re.Message)
		case runtime.KindNotFound:
			return status.Error(codes.NotFound, re.Message)
		}
	}
	return status.Error(codes.Internal, err.Error())
}

// mapRPC converts gRPC statuses back into sentinel errors on the client
// side.
func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	if st, ok := status.FromError(err); ok && st.Code() == codes.NotFound {
		return ErrNotFound
	}
	return err
}
