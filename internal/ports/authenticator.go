package ports

import (
	"context"

	"github.com/Sanskargoyal608/Eziii/internal/domain"
)

type Authenticator interface {
	Login(ctx context.Context, input domain.LoginInput) (domain.Credential, error)
	Register(ctx context.Context, input domain.RegistrationInput) (domain.Credential, error)
}
