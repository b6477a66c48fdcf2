package handlers

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// bindingErrors lists one message per failed field, or the raw error for malformed JSON.
func bindingErrors(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, len(verrs))
	for i, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		out[i] = fmt.Sprintf("%s: must satisfy %s", fe.Namespace(), rule)
	}
	return out
}
