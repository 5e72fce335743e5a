package service

import (
	"context"
	"strings"

	"github.com/fjod/go_cart/smart-trolley/internal/domain"
)

const (
	msgSecurityOK     = "Payment verified. Cart cleared!"
	msgSecurityFailed = "Verification failed."
)

// SecurityVerifier runs the staff passkey check at the exit. A successful
// check clears the cart on the backend, so the mirror is refreshed.
type SecurityVerifier struct {
	Deps
	backend SecurityBackend
}

func NewSecurityVerifier(deps Deps, backend SecurityBackend) *SecurityVerifier {
	return &SecurityVerifier{Deps: deps.withDefaults(), backend: backend}
}

// Verify returns a zero Outcome without calling the backend when passkey
// is empty.
func (v *SecurityVerifier) Verify(ctx context.Context, passkey string, confirm bool) Outcome {
	passkey = strings.TrimSpace(passkey)
	if passkey == "" {
		return Outcome{}
	}

	result, err := v.backend.SecurityCheck(ctx, passkey, confirm)
	var out Outcome
	switch {
	case err != nil:
		out = Outcome{Status: domain.Failure(msgSecurityFailed)}
	case !result.OK:
		msg := serverMessage(result, msgSecurityFailed)
		if result.Message == "" && result.Code != "" {
			msg = msgSecurityFailed + " (" + result.Code + ")"
		}
		out = Outcome{Status: domain.Failure(msg), Code: serverCode(result)}
	default:
		out = Outcome{Status: domain.OK(serverMessage(result, msgSecurityOK))}
		v.refresh(ctx, &out)
	}

	v.report(out.Status)
	v.record(ctx, domain.ActivitySecurity, "", out)
	return out
}
