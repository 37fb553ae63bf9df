package rpc

import (
	"time"

	"github.com/dmitrijs2005/codifyr/internal/common"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/protoadapt"
	"google.golang.org/protobuf/types/known/durationpb"
)

// Error builds a status carrying a reason code. retryAfter is attached as
// RetryInfo when positive.
func Error(code codes.Code, msg, reason string, retryAfter time.Duration) error {
	st := status.New(code, msg)
	if reason == "" && retryAfter <= 0 {
		return st.Err()
	}

	var details []protoadapt.MessageV1
	if reason != "" {
		details = append(details, &errdetails.ErrorInfo{Reason: reason, Domain: common.ErrorDomain})
	}
	if retryAfter > 0 {
		details = append(details, &errdetails.RetryInfo{RetryDelay: durationpb.New(retryAfter)})
	}

	withDetails, err := st.WithDetails(details...)
	if err != nil {
		return st.Err()
	}
	return withDetails.Err()
}

// Details extracts the reason code and retry delay from a status error.
// Both are zero when the server attached none.
func Details(err error) (reason string, retryAfter time.Duration) {
	st, ok := status.FromError(err)
	if !ok {
		return "", 0
	}
	for _, d := range st.Details() {
		switch v := d.(type) {
		case *errdetails.ErrorInfo:
			reason = v.GetReason()
		case *errdetails.RetryInfo:
			retryAfter = v.GetRetryDelay().AsDuration()
		}
	}
	return reason, retryAfter
}
