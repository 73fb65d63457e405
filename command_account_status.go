package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// BlockAccountsMessage requests a batch block on behalf of the caller
type BlockAccountsMessage struct {
	IDs        []uuid.UUID `json:"ids" doc:"Accounts to block."`
	CallerID   uuid.UUID   `json:"caller_id" doc:"Authenticated account issuing the batch."`
	OnResponse func(result BatchResult)
}

func (e BlockAccountsMessage) Type() string { return "account.block" }

// UnblockAccountsMessage requests a batch unblock on behalf of the caller
type UnblockAccountsMessage struct {
	IDs        []uuid.UUID `json:"ids" doc:"Accounts to unblock."`
	CallerID   uuid.UUID   `json:"caller_id" doc:"Authenticated account issuing the batch."`
	OnResponse func(result BatchResult)
}

func (e UnblockAccountsMessage) Type() string { return "account.unblock" }

// DeleteAccountsMessage requests a batch delete from both stores
type DeleteAccountsMessage struct {
	IDs        []uuid.UUID `json:"ids" doc:"Accounts to delete from both stores."`
	CallerID   uuid.UUID   `json:"caller_id" doc:"Authenticated account issuing the batch."`
	OnResponse func(result BatchResult)
}

func (e DeleteAccountsMessage) Type() string { return "account.delete" }

// BlockAccountsHandler executes BlockAccountsMessage against the service
type BlockAccountsHandler struct {
	svc *AccountService
}

func NewBlockAccountsHandler(svc *AccountService) *BlockAccountsHandler {
	return &BlockAccountsHandler{svc: svc}
}

func (h *BlockAccountsHandler) Execute(ctx context.Context, event BlockAccountsMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during account block")
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	result, err := h.svc.BlockAccounts(ctx, event.IDs, event.CallerID)
	if err != nil {
		return asRichError(err, "account block failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(result)
	}
	return nil
}

// UnblockAccountsHandler executes UnblockAccountsMessage against the service
type UnblockAccountsHandler struct {
	svc *AccountService
}

func NewUnblockAccountsHandler(svc *AccountService) *UnblockAccountsHandler {
	return &UnblockAccountsHandler{svc: svc}
}

func (h *UnblockAccountsHandler) Execute(ctx context.Context, event UnblockAccountsMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during account unblock")
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	result, err := h.svc.UnblockAccounts(ctx, event.IDs, event.CallerID)
	if err != nil {
		return asRichError(err, "account unblock failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(result)
	}
	return nil
}

// DeleteAccountsHandler executes DeleteAccountsMessage against the service
type DeleteAccountsHandler struct {
	svc *AccountService
}

func NewDeleteAccountsHandler(svc *AccountService) *DeleteAccountsHandler {
	return &DeleteAccountsHandler{svc: svc}
}

func (h *DeleteAccountsHandler) Execute(ctx context.Context, event DeleteAccountsMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during account delete")
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	result, err := h.svc.DeleteAccounts(ctx, event.IDs, event.CallerID)
	if err != nil {
		return asRichError(err, "account delete failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(result)
	}
	return nil
}

func asRichError(err error, msg string) error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, msg)
}
