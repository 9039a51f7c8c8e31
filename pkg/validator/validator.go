package validator

import (
	"strings"
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

func ValidateCreateThread(kind, name string, memberIDs []int64) ValidationErrors {
	errs := make(ValidationErrors)

	switch kind {
	case "dm":
		if len(memberIDs) != 1 {
			errs.Add("member_ids", "A dm needs exactly one other user")
		}
	case "group":
		validateName(name, errs)
		if len(memberIDs) < 2 {
			errs.Add("member_ids", "A group needs at least two other users")
		}
	case "broadcast":
		validateName(name, errs)
	default:
		errs.Add("kind", "Kind must be dm, group, or broadcast")
	}

	return errs
}

func ValidateMessageBody(body string) ValidationErrors {
	errs := make(ValidationErrors)

	if strings.TrimSpace(body) == "" {
		errs.Add("body", "Message body is required")
	}

	return errs
}

func validateName(name string, errs ValidationErrors) {
	name = strings.TrimSpace(name)
	if name == "" {
		errs.Add("name", "Thread name is required")
	} else if len(name) > 120 {
		errs.Add("name", "Thread name is too long")
	}
}
