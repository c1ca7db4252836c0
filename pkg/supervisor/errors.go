package supervisor

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/propresearch/agentic-research-core/pkg/sharederr"
)

// inputInvalidFromValidator renders a go-playground/validator error as a
// sharederr.InputInvalid naming every failing field.
func inputInvalidFromValidator(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return sharederr.InputInvalid(err.Error())
	}
	msg := ""
	for i, fe := range verrs {
		if i > 0 {
			msg += "; "
		}
		msg += fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
	return sharederr.InputInvalid(msg)
}
