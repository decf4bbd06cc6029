package validations

import (
	"context"

	domainCli "github.com/emundo/emubot/domains/cli"
	pkgError "github.com/emundo/emubot/pkg/error"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func ValidateCliMessage(ctx context.Context, request domainCli.MessageRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Type, validation.Required, validation.In(domainCli.TypeMessage, domainCli.TypeInitial)),
		validation.Field(&request.ID, validation.Required),
		validation.Field(&request.Text, validation.When(request.Type == domainCli.TypeMessage, validation.Required)),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
