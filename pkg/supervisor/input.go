package supervisor

import (
	"github.com/go-playground/validator/v10"

	"github.com/propresearch/agentic-research-core/pkg/model"
)

// ResearchInput is the caller-facing request to create a Job: a U.S. real
// estate address, the investment strategy to underwrite against, and the
// assumptions/limits that tune worker behavior.
type ResearchInput struct {
	Address string `json:"address" validate:"required"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	APN     string `json:"apn"`

	Strategy string `json:"strategy" validate:"omitempty,oneof=flip rental wholesale"`
	Mode     string `json:"mode" validate:"omitempty,oneof=pipeline orchestrated"`

	Assumptions map[string]interface{} `json:"assumptions"`
	Limits      *model.Limits          `json:"limits"`
}

var validate = validator.New()

// Validate enforces the struct tags above, wrapping any failure as a
// sharederr.InputInvalid.
func (in ResearchInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		return inputInvalidFromValidator(err)
	}
	return nil
}
