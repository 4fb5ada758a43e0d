package middleware

import (
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/frontdesk-api/internal/model"
	"github.com/jwalitptl/frontdesk-api/pkg/errors"
	"github.com/jwalitptl/frontdesk-api/pkg/httputil"
	pkgvalidator "github.com/jwalitptl/frontdesk-api/pkg/validator"
)

// ValidationConfig represents validation middleware configuration
type ValidationConfig struct {
	CustomValidators    map[string]validator.Func
	CustomErrorMessages map[string]string
}

func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		CustomValidators:    DomainValidators(),
		CustomErrorMessages: DomainMessages(),
	}
}

// DomainValidators returns the receipttype and recordkind tags.
func DomainValidators() map[string]validator.Func {
	return map[string]validator.Func{
		"receipttype": validateReceiptType,
		"recordkind":  validateRecordKind,
	}
}

func DomainMessages() map[string]string {
	return map[string]string{
		"receipttype": "is not a known receipt type",
		"recordkind":  "is not a known record kind",
	}
}

func validateReceiptType(fl validator.FieldLevel) bool {
	return model.ReceiptType(strings.ToLower(strings.TrimSpace(fl.Field().String()))).Valid()
}

func validateRecordKind(fl validator.FieldLevel) bool {
	return model.RecordKind(fl.Field().String()).Valid()
}

var registerOnce sync.Once

// RegisterValidators installs the custom tags on gin's validator. It runs
// once per process; later calls are no-ops.
func RegisterValidators(config ValidationConfig) {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		if err := pkgvalidator.Configure(v, config.CustomValidators); err != nil {
			panic(err)
		}
	})
}

// Validation answers requests whose body failed to bind. Handlers attach the
// bind error with c.Error and return without writing.
func Validation(config ValidationConfig) gin.HandlerFunc {
	RegisterValidators(config)

	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}
		bindErrs := c.Errors.ByType(gin.ErrorTypeBind)
		if len(bindErrs) == 0 {
			return
		}

		err := bindErrs.Last().Err
		msg, ok := pkgvalidator.Describe(err, config.CustomErrorMessages)
		if !ok {
			httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
			return
		}
		httputil.RespondWithError(c, errors.Validation(msg, err))
	}
}
