package shared

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationMessage names the first failing field of a validator error.
// Other errors get a generic message so internals stay out of responses.
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return "invalid field " + strings.ToLower(fe.Field()) + ": failed " + fe.Tag()
	}
	return "invalid request"
}
