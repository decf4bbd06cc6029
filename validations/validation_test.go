package validations

import (
	"context"
	"testing"

	domainAgent "github.com/emundo/emubot/domains/agent"
	domainCli "github.com/emundo/emubot/domains/cli"
	pkgError "github.com/emundo/emubot/pkg/error"
	"github.com/stretchr/testify/assert"
)

func TestValidateCliMessage(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		request domainCli.MessageRequest
		wantErr bool
	}{
		{"message", domainCli.MessageRequest{Type: "message", Text: "hi", ID: "u1"}, false},
		{"initial without text", domainCli.MessageRequest{Type: "initial", ID: "u1"}, false},
		{"message without text", domainCli.MessageRequest{Type: "message", ID: "u1"}, true},
		{"missing id", domainCli.MessageRequest{Type: "message", Text: "hi"}, true},
		{"unknown type", domainCli.MessageRequest{Type: "photo", ID: "u1"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCliMessage(ctx, tt.request)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.IsType(t, pkgError.ValidationError(""), err)
		})
	}
}

func TestValidateContextsRequest(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, ValidateContextsRequest(ctx, domainAgent.ContextsRequest{UserID: "u1", Contexts: []string{"greeting"}}))
	assert.Error(t, ValidateContextsRequest(ctx, domainAgent.ContextsRequest{UserID: "u1"}))
	assert.Error(t, ValidateContextsRequest(ctx, domainAgent.ContextsRequest{UserID: "u1", Contexts: []string{""}}))
	assert.Error(t, ValidateContextsRequest(ctx, domainAgent.ContextsRequest{Contexts: []string{"greeting"}}))

	assert.NoError(t, ValidateDeleteAllContextsRequest(ctx, domainAgent.ContextsRequest{UserID: "u1"}))
	assert.Error(t, ValidateDeleteAllContextsRequest(ctx, domainAgent.ContextsRequest{}))
}
