package identity

import (
	"errors"
	"net/http"
	"strings"
)

// ErrMissing indica requisição sem identidade de usuário.
var ErrMissing = errors.New("missing user identity")

// Header carrega o id do usuário autenticado. O gateway na frente da API é
// quem autentica; aqui só se confia no header.
const Header = "X-User-ID"

// FromRequest extrai o id do usuário do header da requisição.
func FromRequest(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.Header.Get(Header))
	if id == "" {
		return "", ErrMissing
	}
	return id, nil
}
