package validations

import (
	"context"

	domainAgent "github.com/emundo/emubot/domains/agent"
	pkgError "github.com/emundo/emubot/pkg/error"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func ValidateContextsRequest(ctx context.Context, request domainAgent.ContextsRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.UserID, validation.Required),
		validation.Field(&request.Contexts, validation.Required, validation.Each(validation.Required)),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func ValidateDeleteAllContextsRequest(ctx context.Context, request domainAgent.ContextsRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.UserID, validation.Required),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
