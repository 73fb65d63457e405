package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// RegisterAccountMessage requests a new account across both stores
type RegisterAccountMessage struct {
	Name       string `json:"name" example:"Ana Rone" doc:"Display name for the new account."`
	Email      string `json:"email" example:"ana.rone@example.com" doc:"Account email, also the login name."`
	Password   string `json:"password" doc:"Cleartext password, validated by the credential store."`
	OnResponse func(profile *Profile)
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

// RegisterAccountHandler executes RegisterAccountMessage against the service
type RegisterAccountHandler struct {
	svc *AccountService
}

func NewRegisterAccountHandler(svc *AccountService) *RegisterAccountHandler {
	return &RegisterAccountHandler{svc: svc}
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, event RegisterAccountMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	profile, err := h.svc.Register(ctx, event.Name, event.Email, event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "account registration failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(profile)
	}

	return nil
}
