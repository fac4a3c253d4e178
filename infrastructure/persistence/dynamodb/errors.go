package dynamodb

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	pkgerrors "todolist-backend/pkg/errors"
)

// classify converts DynamoDB errors to application errors. A failed
// condition means the todo row was missing unless the caller says otherwise.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return pkgerrors.NewNotFoundError("todo")
	}

	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		return pkgerrors.NewConflictError("todo was modified concurrently").WithCause(err)
	}

	var ae smithy.APIError
	if errors.As(err, &ae) {
		switch ae.ErrorCode() {
		case "ProvisionedThroughputExceededException", "RequestLimitExceeded", "ThrottlingException":
			return pkgerrors.NewUnavailableError("dynamodb").WithCause(err)
		}
	}

	return pkgerrors.NewPersistenceError(op, err)
}
