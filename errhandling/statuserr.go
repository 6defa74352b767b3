package errhandling

import (
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/firebrand/go-firebrand-common/logger"
)

const (
	// ErrorInfoDomain is the domain reported in errdetails.ErrorInfo.
	ErrorInfoDomain = "firebrand"
)

// so we dont have to import status package everywhere
type Status = status.Status

// ToStatus converts err to a gRPC status. Coded errors keep their gRPC code
// and carry their Firebrand code as the ErrorInfo reason; errors that already
// are statuses pass through; anything else is codes.Unknown.
func ToStatus(err error) *Status {
	if err == nil {
		return status.New(codes.OK, "")
	}
	var c Coded
	if !errors.As(err, &c) {
		if st, ok := status.FromError(err); ok {
			return st
		}
		return statusWithReason(status.New(codes.Unknown, err.Error()), CodeUnknown)
	}
	return statusWithReason(status.New(c.GRPCCode(), err.Error()), c.ErrorCode())
}

func statusWithReason(s *Status, code string) *Status {
	st, err := s.WithDetails(&errdetails.ErrorInfo{
		Reason: code,
		Domain: ErrorInfoDomain,
	})
	if err != nil {
		logger.Sugar.Infof("cannot add error info %s: %v", code, err)
		return s
	}
	return st
}

// CodeFromStatus returns the Firebrand code carried by a status produced by
// ToStatus, or CodeUnknown.
func CodeFromStatus(s *Status) string {
	for _, detail := range s.Details() {
		if info, ok := detail.(*errdetails.ErrorInfo); ok && info.GetDomain() == ErrorInfoDomain {
			return info.GetReason()
		}
	}
	return CodeUnknown
}
