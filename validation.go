package logpipe

import (
	"sync"

	"github.com/Station-Manager/errors"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate
var once sync.Once

// validateOptions checks struct tags on sink option structs.
func validateOptions(op errors.Op, opts any) error {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})

	if err := validate.Struct(opts); err != nil {
		return errors.New(op).Err(err).Msg(errMsgOptionsInvalid)
	}

	return nil
}
