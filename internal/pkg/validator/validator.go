package validator

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"museumbooking/internal/domain"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate struct fields
func Validate(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}

	errs := make(map[string]string)
	for _, fe := range verrs {
		errs[fe.Namespace()] = fe.Tag()
	}
	return errs
}

// Struct validates v and folds any failure into domain.ErrInvalidInput.
func Struct(v interface{}) error {
	errs := Validate(v)
	if len(errs) == 0 {
		return nil
	}

	fields := make([]string, 0, len(errs))
	for f, tag := range errs {
		fields = append(fields, f+"="+tag)
	}
	sort.Strings(fields)
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(fields, ", "))
}
